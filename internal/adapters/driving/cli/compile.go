package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

var (
	compileEnvironment  string
	compileFactsFile    string
	compileFactsFormat  string
	compileStatic       bool
	compileCodeID       string
	compileChecksumType string
	compileNodeFile     string
	compileTransaction  string
)

var compileCmd = &cobra.Command{
	Use:   "compile [node]",
	Short: "Compile a node's catalog",
	Long: `Compiles the catalog for a node and prints it as JSON.

Facts are read from --facts (JSON, YAML or CBOR; the format is taken from
the file extension unless --facts-format is given). With --static and a
--code-id, file metadata for puppet: sources is inlined into the catalog.
--node supplies a pre-classified node (YAML or JSON) and skips the node
lookup.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVarP(&compileEnvironment, "environment", "e", "", "environment to compile in")
	compileCmd.Flags().StringVar(&compileFactsFile, "facts", "", "file holding the node's facts")
	compileCmd.Flags().StringVar(&compileFactsFormat, "facts-format", "", "format of the facts file (json, yaml, cbor)")
	compileCmd.Flags().BoolVar(&compileStatic, "static", false, "compile a static catalog")
	compileCmd.Flags().StringVar(&compileCodeID, "code-id", "", "code snapshot id")
	compileCmd.Flags().StringVar(&compileChecksumType, "checksum-type", domain.ChecksumSHA256,
		"dot-separated checksum preference list")
	compileCmd.Flags().StringVar(&compileNodeFile, "node", "", "file holding a pre-classified node")
	compileCmd.Flags().StringVar(&compileTransaction, "transaction-uuid", "", "transaction id to record")
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	req := domain.CompileRequest{
		NodeKey:       args[0],
		Environment:   compileEnvironment,
		StaticCatalog: compileStatic,
		CodeID:        compileCodeID,
		ChecksumTypes: compileChecksumType,
		TransactionID: compileTransaction,
	}

	if compileFactsFile != "" {
		raw, format, err := readFacts(compileFactsFile, compileFactsFormat)
		if err != nil {
			return err
		}
		req.RawFacts = raw
		req.FactsFormat = format
	}

	if compileNodeFile != "" {
		node, err := readNode(compileNodeFile)
		if err != nil {
			return err
		}
		req.NodeOverride = node
	}

	svc, release, err := loadServices(false)
	if err != nil {
		return err
	}
	defer release()

	catalog, err := svc.Catalog.FindCatalog(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}
	return outputJSON(cmd, catalog)
}

// readFacts reads a facts file and encodes it the way agents send facts.
func readFacts(path, format string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading facts: %w", err)
	}
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = "yaml"
		case ".cbor":
			format = "cbor"
		default:
			format = "json"
		}
	}
	return url.QueryEscape(string(data)), format, nil
}

// readNode reads a node from a YAML or JSON file.
func readNode(path string) (*domain.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading node: %w", err)
	}

	var doc struct {
		Name        string         `yaml:"name"`
		Environment string         `yaml:"environment"`
		Classes     []string       `yaml:"classes"`
		Parameters  map[string]any `yaml:"parameters"`
	}
	// JSON is a subset of YAML.
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing node %s: %w", path, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("node %s has no name", path)
	}
	return &domain.Node{
		Name:        doc.Name,
		Environment: doc.Environment,
		Classes:     doc.Classes,
		Parameters:  doc.Parameters,
	}, nil
}

// outputJSON prints v, indented when writing to a terminal.
func outputJSON(cmd *cobra.Command, v any) error {
	var (
		data []byte
		err  error
	)
	if isTerminal(cmd) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driving"
)

var (
	nodeEnvironment string
	nodeClasses     []string
	nodeParams      []string
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage node classifications",
	Long: `Commands for the classifications used by the store node terminus.
Set server.node_terminus = "store" for compiles to use them.`,
}

var nodeClassifyCmd = &cobra.Command{
	Use:   "classify [name]",
	Short: "Store a node's environment, classes and parameters",
	Args:  cobra.ExactArgs(1),
	RunE:  runNodeClassify,
}

var nodeShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a node's stored classification",
	Args:  cobra.ExactArgs(1),
	RunE:  runNodeShow,
}

func init() {
	nodeClassifyCmd.Flags().StringVarP(&nodeEnvironment, "environment", "e", "", "environment the node compiles in")
	nodeClassifyCmd.Flags().StringSliceVar(&nodeClasses, "class", nil, "class to apply (repeatable)")
	nodeClassifyCmd.Flags().StringArrayVar(&nodeParams, "param", nil, "parameter as key=value (repeatable)")
	nodeCmd.AddCommand(nodeClassifyCmd)
	nodeCmd.AddCommand(nodeShowCmd)
	rootCmd.AddCommand(nodeCmd)
}

func nodeServiceFor() (driving.NodeService, func(), error) {
	svc, release, err := loadServices(false)
	if err != nil {
		return nil, nil, err
	}
	if svc.Nodes == nil {
		release()
		return nil, nil, errors.New("node classifications are not stored by the configured node terminus")
	}
	return svc.Nodes, release, nil
}

func runNodeClassify(cmd *cobra.Command, args []string) error {
	params, err := parseParams(nodeParams)
	if err != nil {
		return err
	}

	nodes, release, err := nodeServiceFor()
	if err != nil {
		return err
	}
	defer release()

	node := domain.Node{
		Name:        args[0],
		Environment: nodeEnvironment,
		Classes:     nodeClasses,
		Parameters:  params,
	}
	if err := nodes.Classify(cmd.Context(), node); err != nil {
		return fmt.Errorf("classify failed: %w", err)
	}

	cmd.Printf("Node %s classified.\n", node.Name)
	return nil
}

func runNodeShow(cmd *cobra.Command, args []string) error {
	nodes, release, err := nodeServiceFor()
	if err != nil {
		return err
	}
	defer release()

	node, err := nodes.Get(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("node %s is not classified", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get node: %w", err)
	}
	return outputJSON(cmd, node)
}

// parseParams parses key=value pairs.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", p)
		}
		params[key] = value
	}
	return params, nil
}

package main

import (
	"fmt"

	"github.com/NethermindEth/incrementer/node"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type nodeFactory func(cmd *cobra.Command) (node.Incrementer, error)

func ReadCmd(newNode nodeFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Print the current counter value.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := newNode(cmd)
			if err != nil {
				return err
			}

			value, err := n.Read(cmd.Context())
			if err != nil {
				return err
			}

			cfg := n.Config()
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Network", "Contract", "Value"})
			table.Append([]string{cfg.Network.String(), cfg.ContractAddress, value.Dec()})
			table.Render()
			return nil
		},
	}
}

func IncrementCmd(newNode nodeFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "increment <amount>",
		Short: "Increment the counter by amount using the configured wallet.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := newNode(cmd)
			if err != nil {
				return err
			}

			snapshot, err := n.Increment(cmd.Context(), args[0])
			if err != nil {
				if snapshot.Message != "" {
					return fmt.Errorf("%s: %w", snapshot.Message, err)
				}
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Account", "Contract", "Value"})
			table.Append([]string{snapshot.Account, snapshot.Contract, snapshot.Value})
			table.Render()
			_, err = fmt.Fprintln(cmd.OutOrStdout(), snapshot.Banner)
			return err
		},
	}
}

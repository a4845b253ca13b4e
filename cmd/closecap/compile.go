package main

import "os"
import "fmt"

import "github.com/spf13/cobra"

import "github.com/tinne26/closecap/capdir"

func compileCommand() *cobra.Command {
	var blockSize int
	cmd := &cobra.Command{
		Use: "compile <source.txt> <output.dat>",
		Short: "Compiles a caption source into a caption database",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.Open(args[0])
			if err != nil { return err }
			defer src.Close()
			writer, err := capdir.Compile(src, blockSize)
			if err != nil { return fmt.Errorf("%s: %w", args[0], err) }

			out, err := os.Create(args[1])
			if err != nil { return err }
			n, err := writer.WriteTo(out)
			if err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil { return err }
			fmt.Fprintf(cmd.OutOrStdout(), "%d captions, %d bytes written to %s\n", writer.Len(), n, args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&blockSize, "block-size", capdir.DefaultBlockSize, "database block size in bytes")
	return cmd
}

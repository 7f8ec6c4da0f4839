package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raywall/fast-service-mock/pkg/engine"
)

// errInvalid sinaliza contrato com erros; o relatório já foi impresso.
var errInvalid = errors.New("contrato inválido")

type rootOptions struct {
	Format string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "Erro:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "toolkit",
		Short: "Ferramentas de linha de comando do fast-service-mock",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("formato inválido %q: use text ou json", opts.Format)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de saída (text|json)")

	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newRoutesCommand(opts))
	return cmd
}

type sourceFlags struct {
	file   string
	config string
}

func (s *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "contrato OpenAPI (caminho, s3:// ou dynamodb://)")
	cmd.Flags().StringVarP(&s.config, "config", "c", "", "arquivo de configuração do mock; usa o contrato configurado")
	cmd.MarkFlagsOneRequired("file", "config")
	cmd.MarkFlagsMutuallyExclusive("file", "config")
}

// read devolve o contrato indicado diretamente ou pela configuração.
func (s *sourceFlags) read(ctx context.Context) ([]byte, string, error) {
	loader := engine.NewUniversalLoader()
	source := s.file
	if s.config != "" {
		cfg, err := loader.LoadConfig(ctx, s.config)
		if err != nil {
			return nil, "", err
		}
		source = cfg.Contract.Source
	}
	data, err := loader.Fetch(ctx, source)
	return data, source, err
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	src := &sourceFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Valida o contrato e lista avisos sobre operações incompletas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, source, err := src.read(cmd.Context())
			if err != nil {
				return err
			}
			report, _ := engine.AnalyzeContract(data)
			return writeReport(cmd.OutOrStdout(), opts.Format, source, report)
		},
	}
	src.bind(cmd)
	return cmd
}

func writeReport(w io.Writer, format, source string, report *engine.ValidationReport) error {
	if format == "json" {
		if err := json.NewEncoder(w).Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "Analisando contrato: %s\n", source)
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  erro: %s\n", e)
		}
		for _, warn := range report.Warnings {
			fmt.Fprintf(w, "  aviso: %s\n", warn)
		}
		if report.Valid {
			fmt.Fprintf(w, "Contrato válido: %d operações\n", report.Operations)
		}
	}

	if !report.Valid {
		return errInvalid
	}
	return nil
}

func newRoutesCommand(opts *rootOptions) *cobra.Command {
	src := &sourceFlags{}
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Imprime a tabela de rotas compilada em ordem de precedência",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, source, err := src.read(cmd.Context())
			if err != nil {
				return err
			}
			report, table := engine.AnalyzeContract(data)
			if table == nil {
				return writeReport(cmd.OutOrStdout(), opts.Format, source, report)
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return json.NewEncoder(out).Encode(table.Describe())
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MÉTODO\tPATH\tCOMPORTAMENTO\tSTATUS\tSEGURANÇA")
			for _, r := range table.Describe() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%v\n", r.Method, r.Path, r.Behavior, r.Statuses, r.Security)
			}
			return tw.Flush()
		},
	}
	src.bind(cmd)
	return cmd
}

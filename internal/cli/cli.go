// Package cli implements the guardar command tree.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"

	"github.com/201flaviosilva/guardar"
	"github.com/201flaviosilva/guardar/internal/config"
	"github.com/201flaviosilva/guardar/internal/logging"
)

// Exit codes returned by cmd/guardar.
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Output formats accepted by dump --format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// BackendOpener builds the backend for one command run.
type BackendOpener func(ctx context.Context, cfg config.Config) (guardar.Backend, func() error, error)

func openConfigured(ctx context.Context, cfg config.Config) (guardar.Backend, func() error, error) {
	return cfg.OpenBackend(ctx)
}

type app struct {
	open BackendOpener

	envFile   string
	backend   string
	path      string
	rootKey   string
	verbosity int

	store   *guardar.Store
	closeFn func() error
}

// NewRootCmd creates the root command using the backend named by the
// configuration.
func NewRootCmd() *cobra.Command {
	return newRootCmd(openConfigured)
}

func newRootCmd(open BackendOpener) *cobra.Command {
	a := &app{open: open}

	cmd := &cobra.Command{
		Use:   "guardar",
		Short: "Read and edit a JSON namespace kept in a key-value backend",
		Long: `guardar keeps one JSON object under a root key of a storage backend
(files, SQLite, S3 or memory) and edits it field by field.

Configuration comes from GUARDAR_* environment variables, an optional .env
file and the flags below, in increasing order of precedence.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "Optional dotenv file with GUARDAR_* variables")
	flags.StringVar(&a.backend, "backend", "", "Backend: memory, file, sqlite or s3 (env: GUARDAR_BACKEND)")
	flags.StringVar(&a.path, "path", "", "Directory or database file for file/sqlite backends (env: GUARDAR_PATH)")
	flags.StringVar(&a.rootKey, "root", "", "Root key holding the namespace (env: GUARDAR_ROOT_KEY)")
	flags.IntVarP(&a.verbosity, "verbose", "v", 0, "klog verbosity; 4 shows debug messages")

	cmd.AddCommand(
		a.getCmd(),
		a.setCmd(),
		a.rmCmd(),
		a.keysCmd(),
		a.sizeCmd(),
		a.hasCmd(),
		a.emptyCmd(),
		a.clearCmd(),
		a.renameCmd(),
		a.dumpCmd(),
		a.loadCmd(),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	if err := fs.Set("v", strconv.Itoa(a.verbosity)); err != nil {
		return err
	}

	cfg, err := config.Load(a.envFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if a.backend != "" {
		cfg.Backend = strings.ToLower(a.backend)
	}
	if a.path != "" {
		cfg.Path = a.path
	}
	if a.rootKey != "" {
		cfg.RootKey = a.rootKey
	}

	ctx := cmd.Context()
	backend, closeFn, err := a.open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	a.closeFn = closeFn

	store, err := guardar.New(ctx, backend,
		guardar.WithRootKey(cfg.RootKey),
		guardar.WithLogger(logging.Klog("[Storage]")),
		guardar.WithLogTag(cfg.LogTag),
	)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	a.store = store
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the JSON value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.store.GetField(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !v.Exists() {
				return fmt.Errorf("key %q not found", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(v.Raw()))
			return err
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	var asString bool
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store VALUE under KEY",
		Long: `Store VALUE under KEY. VALUE is parsed as JSON when it is valid JSON
and stored as a string otherwise, or always with --string.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.SetField(cmd.Context(), args[0], parseValue(args[1], asString))
		},
	}
	cmd.Flags().BoolVar(&asString, "string", false, "Store VALUE as a JSON string without parsing")
	return cmd
}

// parseValue turns a command line argument into something SetField accepts.
func parseValue(arg string, asString bool) any {
	if asString {
		return arg
	}
	if v, err := guardar.RawValue([]byte(arg)); err == nil {
		return v
	}
	return arg
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm KEY",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove KEY from the namespace",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.RemoveField(cmd.Context(), args[0])
		},
	}
}

func (a *app) keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List keys in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := a.store.Keys(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func (a *app) sizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the number of keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.store.Size(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
}

func (a *app) hasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "has KEY",
		Short: "Print whether KEY is present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.store.Has(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ok)
			return err
		},
	}
}

func (a *app) emptyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "empty",
		Short: "Print whether the namespace has no keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := a.store.IsEmpty(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ok)
			return err
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset the namespace to an empty object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.store.Clear(cmd.Context())
		},
	}
}

func (a *app) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename NAME",
		Short: "Move the namespace to root key NAME, replacing anything stored there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.RenameRoot(cmd.Context(), args[0])
		},
	}
}

func (a *app) dumpCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the whole namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			obj, err := a.store.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			return writeObject(cmd.OutOrStdout(), obj, strings.ToLower(format))
		},
	}
	cmd.Flags().StringVar(&format, "format", FormatJSON, "Output format: json or yaml")
	return cmd
}

func writeObject(w io.Writer, obj *guardar.Object, format string) error {
	switch format {
	case FormatJSON:
		raw, err := obj.MarshalJSON()
		if err != nil {
			return err
		}
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return err
		}
		out.WriteByte('\n')
		_, err = out.WriteTo(w)
		return err
	case FormatYAML:
		out, err := yaml.Marshal(obj)
		if err != nil {
			return errors.Wrap(err, "yaml marshal error")
		}
		_, err = w.Write(out)
		return err
	}
	return fmt.Errorf("invalid format: %s (must be 'json' or 'yaml')", format)
}

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Replace the namespace with the JSON object in FILE, or stdin for -",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return errors.Wrap(err, "read input")
			}
			return a.store.UpdateAll(cmd.Context(), json.RawMessage(data))
		},
	}
}

// Package cli implements campaignctl, a command line client of the campaign
// backend built on the cached collections.
package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/goliatone/go-campaign-client/config"
	"github.com/goliatone/go-campaign-client/gateway"
	"github.com/goliatone/go-campaign-client/pkg/di"
	"github.com/goliatone/go-campaign-client/query"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type settings struct {
	cfg    *config.Config
	actor  gateway.Actor
	logger *zap.Logger
}

type Option func(*settings)

// WithConfig skips loading the environment.
func WithConfig(cfg config.Config) Option {
	return func(s *settings) { s.cfg = &cfg }
}

// WithActor connects to actor instead of dialing BaseURL.
func WithActor(actor gateway.Actor) Option {
	return func(s *settings) { s.actor = actor }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

type app struct {
	settings
	container *di.Container
	ops       map[string]entityOps

	baseURL   string
	principal string
	token     string
	timeout   time.Duration
}

func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range opts {
		opt(&a.settings)
	}

	rootCmd := &cobra.Command{
		Use:               "campaignctl",
		Short:             "Query and edit campaign records",
		Long:              "campaignctl talks to a campaign backend: list records with filters, fetch, create, update and delete them. Output is JSON.",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: a.connect,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.baseURL, "base-url", "", "backend URL, overrides CAMPAIGN_BASE_URL")
	flags.StringVar(&a.principal, "principal", "", "principal to call as, overrides CAMPAIGN_PRINCIPAL")
	flags.StringVar(&a.token, "token", "", "bearer token, overrides CAMPAIGN_TOKEN")
	flags.DurationVar(&a.timeout, "timeout", 0, "request timeout, overrides CAMPAIGN_REQUEST_TIMEOUT")

	rootCmd.AddCommand(
		newEntitiesCmd(),
		newFindCmd(a),
		newGetCmd(a),
		newCountCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
	)
	return rootCmd
}

func (a *app) connect(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case "entities", "help", "completion":
		return nil
	}

	var cfg config.Config
	if a.cfg != nil {
		cfg = *a.cfg
	} else {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	if a.principal != "" {
		cfg.Principal = a.principal
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	if a.timeout > 0 {
		cfg.RequestTimeout = a.timeout
	}

	logger := a.logger
	if logger == nil {
		l, err := config.NewLogger(cfg)
		if err != nil {
			return err
		}
		logger = l
	}

	container, err := di.NewContainer(cfg, di.WithLogger(logger))
	if err != nil {
		return err
	}
	if a.actor != nil {
		_, err = container.Connect(cmd.Context(), a.actor, gateway.Identity{Principal: cfg.Principal, Token: cfg.Token})
	} else {
		_, err = container.ConnectHTTP(cmd.Context())
	}
	if err != nil {
		return err
	}

	a.container = container
	a.ops = registry(container)
	return nil
}

func (a *app) entity(name string) (entityOps, error) {
	return lookupOps(a.ops, name)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, usageError("id %q is not a UUID", s)
	}
	return id, nil
}

func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the entity names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), entityNames())
		},
	}
}

func newFindCmd(a *app) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:     "find <entity>",
		Short:   "List records matching filters",
		Example: "  campaignctl find campaigns --filter title:contains:road --order created_at:desc --limit 0:10",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.entity(args[0])
			if err != nil {
				return err
			}
			filters, orders, limit, err := lf.parse()
			if err != nil {
				return err
			}
			records, err := ops.query(cmd.Context(), filters, orders, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringArrayVar(&lf.filters, "filter", nil, "key:op:value, repeatable")
	cmd.Flags().StringArrayVar(&lf.orders, "order", nil, "key:asc|desc, repeatable")
	cmd.Flags().StringVar(&lf.limit, "limit", "", "offset:size")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Fetch one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.entity(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			record, err := ops.get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
}

func newCountCmd(a *app) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "count <entity>",
		Short: "Count records matching filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.entity(args[0])
			if err != nil {
				return err
			}
			filters, _, _, err := lf.parse()
			if err != nil {
				return err
			}
			built, err := query.Build(filters, nil, nil)
			if err != nil {
				return err
			}
			n, err := ops.count(cmd.Context(), built.Criteria)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]int{"count": n})
		},
	}
	cmd.Flags().StringArrayVar(&lf.filters, "filter", nil, "key:op:value, repeatable")
	return cmd
}

func newCreateCmd(a *app) *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:     "create <entity>",
		Short:   "Create a record from JSON",
		Example: `  campaignctl create tags --json '{"name":"environment","color":"#00ff00"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.entity(args[0])
			if err != nil {
				return err
			}
			record, err := ops.create(cmd.Context(), []byte(body))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
	cmd.Flags().StringVar(&body, "json", "", "record as JSON")
	_ = cmd.MarkFlagRequired("json")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "update <entity> <id>",
		Short: "Replace a record with JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.entity(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			record, err := ops.update(cmd.Context(), id, []byte(body))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
	cmd.Flags().StringVar(&body, "json", "", "record as JSON")
	_ = cmd.MarkFlagRequired("json")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := a.entity(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := ops.delete(cmd.Context(), id); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": id.String()})
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ael-dev3/Hypercast/internal/feed"
	"github.com/ael-dev3/Hypercast/internal/store"
)

// CastsOptions holds flags for the casts command.
type CastsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// castRow is the JSON view of one cast.
type castRow struct {
	Hash       string   `json:"hash"`
	FID        uint64   `json:"fid"`
	Text       string   `json:"text"`
	CreatedAt  int64    `json:"created_at"`
	ParentFID  uint64   `json:"parent_fid,omitempty"`
	ParentHash string   `json:"parent_hash,omitempty"`
	Mentions   []uint64 `json:"mentions,omitempty"`
	EventID    uint64   `json:"event_id"`
}

// castsResult is the JSON payload of the casts command.
type castsResult struct {
	Count int       `json:"count"`
	Total int       `json:"total"`
	Casts []castRow `json:"casts"`
}

func (r castsResult) String() string {
	if len(r.Casts) == 0 {
		return "no casts stored"
	}
	var b strings.Builder
	for _, c := range r.Casts {
		ts := time.UnixMilli(c.CreatedAt).UTC().Format(time.RFC3339)
		fmt.Fprintf(&b, "%s  fid=%d  %s\n", ts, c.FID, c.Hash)
		text := c.Text
		if text == "" {
			text = "(no text)"
		}
		fmt.Fprintf(&b, "    %s\n", text)
	}
	fmt.Fprintf(&b, "%d of %d casts", len(r.Casts), r.Total)
	return b.String()
}

// NewCastsCommand creates the casts command.
func NewCastsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CastsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "casts",
		Short: "List harvested casts, newest first",
		Long: `List the current (non-deleted) casts from the local SQLite store.

Example:
  hypercast casts --db ./hypercast.db --limit 20
  hypercast casts --db ./hypercast.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCasts(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum casts to print")

	return cmd
}

func listCasts(opts *CastsOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Store.Path = opts.Database
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	casts, err := st.ListCasts(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list casts", err)
	}
	total, err := st.CountCasts(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count casts", err)
	}

	result := castsResult{
		Count: len(casts),
		Total: total,
		Casts: make([]castRow, 0, len(casts)),
	}
	for _, c := range casts {
		result.Casts = append(result.Casts, rowFromCast(c))
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(result)
}

func rowFromCast(c feed.Cast) castRow {
	return castRow{
		Hash:       c.Hash,
		FID:        c.FID,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt,
		ParentFID:  c.ParentFID,
		ParentHash: c.ParentHash,
		Mentions:   c.Mentions,
		EventID:    c.EventID,
	}
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/core/tx/oracle"
	"github.com/LeJamon/goOracled/internal/rpc"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

// ErrTransactionFailed is returned when the node rejects a submitted transaction.
var ErrTransactionFailed = errors.New("transaction failed")

// feedCmd represents the feed command group
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Data feed client commands",
	Long: `Sign and submit data feed transactions to a running node, and query
feeds. Signing commands read an ed25519 keypair in solana-keygen JSON format.`,
}

// feedTarget selects a data feed either by address or by (owner, feed id).
type feedTarget struct {
	keypair  string
	feed     string
	owner    string
	feedID   uint16
	sequence uint32
}

func (f *feedTarget) bind(cmd *cobra.Command, signing bool) {
	cmd.Flags().StringVar(&f.feed, "feed", "", "data feed address")
	cmd.Flags().StringVar(&f.owner, "owner", "", "feed owner, used with --feed-id (default: the keypair's key)")
	cmd.Flags().Uint16Var(&f.feedID, "feed-id", 0, "feed id, used when --feed is not given")
	if signing {
		cmd.Flags().StringVar(&f.keypair, "keypair", "", "signing keypair file")
		cmd.Flags().Uint32Var(&f.sequence, "sequence", 0, "feed sequence to sign (default: the feed's current sequence)")
		_ = cmd.MarkFlagRequired("keypair")
	}
}

func (f *feedTarget) key() (solana.PrivateKey, error) {
	k, err := solana.PrivateKeyFromSolanaKeygenFile(f.keypair)
	if err != nil {
		return nil, fmt.Errorf("read keypair %s: %w", f.keypair, err)
	}
	return k, nil
}

// resolve returns the data feed address. Without --feed the address is
// derived by the node from --owner, or the signer, and --feed-id.
func (f *feedTarget) resolve(ctx context.Context, cmd *cobra.Command, client *rpc.Client, signer solana.PublicKey) (solana.PublicKey, error) {
	if f.feed != "" {
		addr, err := solana.PublicKeyFromBase58(f.feed)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid --feed: %w", err)
		}
		return addr, nil
	}
	if !cmd.Flags().Changed("feed-id") {
		return solana.PublicKey{}, fmt.Errorf("one of --feed or --feed-id is required")
	}

	owner := signer
	if f.owner != "" {
		k, err := solana.PublicKeyFromBase58(f.owner)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid --owner: %w", err)
		}
		owner = k
	}
	if owner.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("--owner is required with --feed-id")
	}

	derived, err := client.DeriveAddress(ctx, owner, f.feedID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBase58(derived.DataFeed)
}

// signAndSubmit builds a transaction for the target feed with build, signs it
// with the keypair and submits it.
func (f *feedTarget) signAndSubmit(cmd *cobra.Command, build func(signer, feed solana.PublicKey) (tx.Transaction, error)) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}
	key, err := f.key()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client := rpc.NewClient(endpoint(c), c.RPC.Timeout)
	signer := key.PublicKey()
	feed, err := f.resolve(ctx, cmd, client, signer)
	if err != nil {
		return err
	}

	t, err := build(signer, feed)
	if err != nil {
		return err
	}
	if t.TxType().IsSequenced() {
		seq := f.sequence
		if !cmd.Flags().Changed("sequence") {
			info, err := client.DataFeed(ctx, feed)
			if err != nil {
				return fmt.Errorf("fetch sequence of %s: %w", feed, err)
			}
			seq = info.Sequence
		}
		t.GetCommon().Sequence = seq
	}
	if err := tx.Sign(t, key); err != nil {
		return err
	}

	resp, err := client.Submit(ctx, t)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, resp); err != nil {
		return err
	}
	if resp.EngineResultCode != int(tx.TesSUCCESS) {
		return fmt.Errorf("%w: %s: %s", ErrTransactionFailed, resp.EngineResult, resp.EngineResultMessage)
	}
	return nil
}

func newInitCmd() *cobra.Command {
	var target feedTarget
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data feed (signer, --feed-id)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return target.signAndSubmit(cmd, func(signer, feed solana.PublicKey) (tx.Transaction, error) {
				return oracle.NewInitialize(signer, feed, target.feedID), nil
			})
		},
	}
	target.bind(cmd, true)
	return cmd
}

func newSetValueCmd() *cobra.Command {
	var (
		target    feedTarget
		timestamp int64
		label     string
	)
	cmd := &cobra.Command{
		Use:   "set-value <value>",
		Short: "Publish a new value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[0], err)
			}
			return target.signAndSubmit(cmd, func(signer, feed solana.PublicKey) (tx.Transaction, error) {
				return oracle.NewSetValue(signer, feed, value, timestamp, label), nil
			})
		},
	}
	target.bind(cmd, true)
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "unix timestamp of the value")
	cmd.Flags().StringVar(&label, "label", "", "source label")
	_ = cmd.MarkFlagRequired("timestamp")
	return cmd
}

func newSetLicenseCmd() *cobra.Command {
	var target feedTarget
	cmd := &cobra.Command{
		Use:   "set-license <public|private>",
		Short: "Change the read license",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			license, err := entry.ParseLicense(args[0])
			if err != nil {
				return err
			}
			return target.signAndSubmit(cmd, func(signer, feed solana.PublicKey) (tx.Transaction, error) {
				return oracle.NewSetLicense(signer, feed, license), nil
			})
		},
	}
	target.bind(cmd, true)
	return cmd
}

func newSubscriptionCmd(use, short string, revoke bool) *cobra.Command {
	var target feedTarget
	cmd := &cobra.Command{
		Use:   use + " <subscriber>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subscriber, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid subscriber: %w", err)
			}
			return target.signAndSubmit(cmd, func(signer, feed solana.PublicKey) (tx.Transaction, error) {
				if revoke {
					return oracle.NewRevokeSubscription(signer, feed, subscriber), nil
				}
				return oracle.NewAddSubscription(signer, feed, subscriber), nil
			})
		},
	}
	target.bind(cmd, true)
	return cmd
}

func newSetAuditorCmd() *cobra.Command {
	var target feedTarget
	cmd := &cobra.Command{
		Use:   "set-auditor <auditor>",
		Short: "Delegate range limits to an auditor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid auditor: %w", err)
			}
			return target.signAndSubmit(cmd, func(signer, feed solana.PublicKey) (tx.Transaction, error) {
				return oracle.NewSetAuditor(signer, feed, auditor), nil
			})
		},
	}
	target.bind(cmd, true)
	return cmd
}

func newSetLimitCmd() *cobra.Command {
	var target feedTarget
	cmd := &cobra.Command{
		Use:   "set-limit <min> <max>",
		Short: "Set the accepted value range (owner or auditor)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minValue, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid min %q: %w", args[0], err)
			}
			maxValue, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid max %q: %w", args[1], err)
			}
			return target.signAndSubmit(cmd, func(signer, feed solana.PublicKey) (tx.Transaction, error) {
				return oracle.NewSetLimit(signer, feed, minValue, maxValue), nil
			})
		},
	}
	target.bind(cmd, true)
	return cmd
}

func newShowCmd() *cobra.Command {
	var target feedTarget
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Describe a data feed account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig()
			if err != nil {
				return err
			}
			client := rpc.NewClient(endpoint(c), c.RPC.Timeout)
			feed, err := target.resolve(cmd.Context(), cmd, client, solana.PublicKey{})
			if err != nil {
				return err
			}
			info, err := client.DataFeed(cmd.Context(), feed)
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}
	target.bind(cmd, false)
	return cmd
}

func newPullCmd() *cobra.Command {
	var (
		target feedTarget
		caller string
	)
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Read a data feed through the node's consumer program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig()
			if err != nil {
				return err
			}
			var endCaller solana.PublicKey
			if caller != "" {
				if endCaller, err = solana.PublicKeyFromBase58(caller); err != nil {
					return fmt.Errorf("invalid --caller: %w", err)
				}
			}
			client := rpc.NewClient(endpoint(c), c.RPC.Timeout)
			feed, err := target.resolve(cmd.Context(), cmd, client, solana.PublicKey{})
			if err != nil {
				return err
			}
			reading, err := client.Pull(cmd.Context(), feed, endCaller)
			if err != nil {
				return err
			}
			return printJSON(cmd, reading)
		},
	}
	target.bind(cmd, false)
	cmd.Flags().StringVar(&caller, "caller", "", "end caller recorded with the read")
	return cmd
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(
		newInitCmd(),
		newSetValueCmd(),
		newSetLicenseCmd(),
		newSubscriptionCmd("subscribe", "Grant a reader access to a private feed", false),
		newSubscriptionCmd("revoke", "Remove a reader from the subscription list", true),
		newSetAuditorCmd(),
		newSetLimitCmd(),
		newShowCmd(),
		newPullCmd(),
	)
}

func parseFeedID(s string) (uint16, error) {
	id, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid feed id %q: %w", s, err)
	}
	return uint16(id), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

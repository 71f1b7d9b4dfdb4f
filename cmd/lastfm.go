package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/alephplay/internal/config"
	"github.com/llehouerou/alephplay/internal/history"
	"github.com/llehouerou/alephplay/internal/lastfm"
)

var errLastfmNotConfigured = errors.New("last.fm is not configured: set lastfm.api_key and lastfm.api_secret")

var lastfmCallbackAddr string

var lastfmCmd = &cobra.Command{
	Use:   "lastfm",
	Short: "Manage the Last.fm link used for scrobbling",
}

var lastfmLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Link a Last.fm account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, ledger, err := openLastfm()
		if err != nil {
			return err
		}
		defer ledger.Close()

		client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
		token, err := client.GetToken()
		if err != nil {
			return fmt.Errorf("request token: %w", err)
		}

		auth, err := lastfm.StartAuthServer(lastfmCallbackAddr)
		if err != nil {
			return fmt.Errorf("start callback server: %w", err)
		}
		defer auth.Shutdown()

		url := client.AuthURL(token, auth.CallbackURL())
		fmt.Fprintf(cmd.OutOrStdout(), "Approve access in your browser:\n  %s\n", url)
		if err := lastfm.OpenBrowser(url); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Could not open a browser; open the link above manually.")
		}

		if cb := lastfm.WaitForToken(cmd.Context(), auth.TokenChan(), lastfm.AuthTimeout); cb != "" {
			token = cb
		} else if err := cmd.Context().Err(); err != nil {
			return err
		}

		username, sessionKey, err := client.GetSession(token)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if err := ledger.SaveLastfmSession(username, sessionKey); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Linked Last.fm account %s.\n", username)
		return nil
	},
}

var lastfmLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the linked Last.fm account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, ledger, err := openLastfm()
		if err != nil {
			return err
		}
		defer ledger.Close()
		if err := ledger.DeleteLastfmSession(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Last.fm account unlinked.")
		return nil
	},
}

func init() {
	lastfmLoginCmd.Flags().StringVar(&lastfmCallbackAddr, "callback-addr", lastfm.DefaultCallbackAddr,
		"address of the local server receiving the Last.fm callback")
	lastfmCmd.AddCommand(lastfmLoginCmd, lastfmLogoutCmd)
	rootCmd.AddCommand(lastfmCmd)
}

func openLastfm() (*config.Config, *history.Ledger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasLastfmConfig() {
		return nil, nil, errLastfmNotConfigured
	}
	ledger, err := history.Open(cfg.History.Path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	return cfg, ledger, nil
}


package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/streamwave/internal/config"
	"github.com/llehouerou/streamwave/internal/lastfm"
)

const authTimeout = 5 * time.Minute

var lastfmCmd = &cobra.Command{
	Use:   "lastfm",
	Short: "Last.fm integration",
}

var lastfmLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize streamwave and print the session key for presence.session_key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(extraConfig()...)
		if err != nil {
			return err
		}
		if !cfg.HasPresenceConfig() {
			return errors.New("presence.api_key and presence.api_secret must be set")
		}
		client := lastfm.New(cfg.Presence.APIKey, cfg.Presence.APISecret)

		cb, err := lastfm.ListenCallback("")
		if err != nil {
			return err
		}
		defer cb.Close()

		token, err := client.Token()
		if err != nil {
			return err
		}
		authURL := client.AuthURL(token)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Authorize streamwave at:\n  %s\n", authURL)
		if err := lastfm.OpenBrowser(authURL); err != nil {
			fmt.Fprintln(out, "(could not open a browser, open the link manually)")
		}

		token, err = cb.Wait(cmd.Context(), authTimeout)
		if err != nil {
			return err
		}
		session, err := client.Login(token)
		if err != nil {
			return err
		}
		if session.Username != "" {
			fmt.Fprintf(out, "Logged in as %s.\n", session.Username)
		}
		fmt.Fprintf(out, "Add to your config:\n\n[presence]\nsession_key = %q\n", session.Key)
		return nil
	},
}

func init() {
	lastfmCmd.AddCommand(lastfmLoginCmd)
	rootCmd.AddCommand(lastfmCmd)
}

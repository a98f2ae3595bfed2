package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	apiURL         = "http://localhost:8080"
	usernameFilter string

	playersCmd = &cobra.Command{
		Use:   "players",
		Short: "Lists the players of a running gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := fetchPlayers(cmd.Context(), http.DefaultClient, apiURL, usernameFilter)
			if err != nil {
				return err
			}
			writePlayerTable(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	kickCmd = &cobra.Command{
		Use:   "kick <username>",
		Short: "Disconnects a player from a running gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kickPlayer(cmd.Context(), http.DefaultClient, apiURL, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kicked %s\n", args[0])
			return nil
		},
	}
)

type playerListResponse struct {
	Online  int `json:"online"`
	Players []struct {
		Username        string    `json:"username"`
		UUID            string    `json:"uuid"`
		RemoteAddr      string    `json:"remoteAddress"`
		ProtocolVersion int32     `json:"protocolVersion"`
		AuthenticatedAt time.Time `json:"authenticatedAt"`
	} `json:"players"`
}

func init() {
	apiURL = envString("GATEKEEPER_API_URL", apiURL)
	playersCmd.PersistentFlags().StringVar(&apiURL, "api-url", apiURL, "base URL of the gateway API")
	playersCmd.Flags().StringVar(&usernameFilter, "username-regex", "", "only list players whose name matches")
	playersCmd.AddCommand(kickCmd)
	rootCmd.AddCommand(playersCmd)
}

func fetchPlayers(ctx context.Context, client *http.Client, baseURL, usernameRegex string) (playerListResponse, error) {
	reqURL := strings.TrimSuffix(baseURL, "/") + "/v1/players/"
	if usernameRegex != "" {
		reqURL += "?" + url.Values{"usernameRegex": {usernameRegex}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return playerListResponse{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return playerListResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return playerListResponse{}, fmt.Errorf("listing players: %s", resp.Status)
	}

	var players playerListResponse
	if err := json.NewDecoder(resp.Body).Decode(&players); err != nil {
		return playerListResponse{}, err
	}
	return players, nil
}

func kickPlayer(ctx context.Context, client *http.Client, baseURL, username string) error {
	reqURL := strings.TrimSuffix(baseURL, "/") + "/v1/players/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("player %q is not online", username)
	default:
		return fmt.Errorf("kicking player: %s", resp.Status)
	}
}

func writePlayerTable(w io.Writer, resp playerListResponse) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Username", "UUID", "Address", "Protocol", "Online since"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, p := range resp.Players {
		tw.Append([]string{
			p.Username,
			p.UUID,
			p.RemoteAddr,
			strconv.Itoa(int(p.ProtocolVersion)),
			p.AuthenticatedAt.Format(time.RFC3339),
		})
	}

	tw.Render()
	fmt.Fprintf(w, "%d players online\n", resp.Online)
}

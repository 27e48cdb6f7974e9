package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

var (
	serverURL   string
	configPath  string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "osz-extract",
		Short: "osz-extract CLI - osu! beatmapset audio acquisition",
		Long:  `A command-line interface for acquiring beatmapset audio into a local music library.`,

		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Server URL")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file, also passed to an auto-started server")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(tracksCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(extractCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if _, err := newLauncher(serverURL, configPath).ensure(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// do sends a request to the server and returns the status and body
func do(method, path string, payload interface{}, token string) (int, []byte) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fail(err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		fail(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fail(err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func parseContentID(arg string) int {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		fail(fmt.Errorf("invalid beatmapset id %q", arg))
	}
	return id
}

var addCmd = &cobra.Command{
	Use:   "add [beatmapset-id]",
	Short: "Acquire a beatmapset's audio into the library",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		id := parseContentID(args[0])
		title, _ := cmd.Flags().GetString("title")
		token, _ := cmd.Flags().GetString("token")

		status, body := do(http.MethodPost, "/api/v1/acquisitions", map[string]interface{}{
			"content_id": id,
			"title":      title,
		}, token)
		if status != http.StatusAccepted {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var acceptance domain.Acceptance
		json.Unmarshal(body, &acceptance)
		fmt.Printf("Acquisition accepted!\n")
		fmt.Printf("Beatmapset: %d\n", acceptance.ContentID)
		fmt.Printf("Request:    %s\n", acceptance.RequestID)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress [beatmapset-id]",
	Short: "Show acquisition progress",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var entries []domain.DownloadProgress
		if len(args) == 1 {
			status, body := do(http.MethodGet, "/api/v1/acquisitions/"+strconv.Itoa(parseContentID(args[0])), nil, "")
			if status != http.StatusOK {
				fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
				os.Exit(1)
			}
			var p domain.DownloadProgress
			json.Unmarshal(body, &p)
			entries = append(entries, p)
		} else {
			_, body := do(http.MethodGet, "/api/v1/acquisitions", nil, "")
			json.Unmarshal(body, &entries)
		}

		printProgress(entries)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [beatmapset-id]",
	Short: "Cancel a running acquisition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		status, body := do(http.MethodDelete, "/api/v1/acquisitions/"+strconv.Itoa(parseContentID(args[0])), nil, "")
		if status != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println("Acquisition cancelled")
	},
}

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List library tracks",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		status, body := do(http.MethodGet, "/api/v1/tracks", nil, "")
		if status != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var tracks []domain.PersistedTrack
		json.Unmarshal(body, &tracks)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tARTIST\tDURATION\tADDED")
		for _, t := range tracks {
			duration := "-"
			if t.Duration != nil {
				duration = fmt.Sprintf("%d:%02d", *t.Duration/60, *t.Duration%60)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(t.ID, 40),
				truncate(t.Title, 30),
				truncate(t.Artist, 20),
				duration,
				t.AddedDate.Format("2006-01-02 15:04"))
		}
		w.Flush()
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View today's category log (acquire, error)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		limit, _ := cmd.Flags().GetInt("limit")
		status, body := do(http.MethodGet, fmt.Sprintf("/api/v1/logs/%s?limit=%d", args[0], limit), nil, "")
		if status != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		prettyJSON, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(prettyJSON))
	},
}

func init() {
	addCmd.Flags().StringP("title", "t", "", "Title used when metadata is unavailable")
	addCmd.Flags().String("token", os.Getenv("OSU_ACCESS_TOKEN"), "osu! API bearer token")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries to show")
}

func printProgress(entries []domain.DownloadProgress) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPERCENT\tERROR")
	for _, p := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d%%\t%s\n",
			p.ContentID,
			truncate(p.Title, 30),
			p.Status,
			p.Percent,
			truncate(p.Error, 60))
	}
	w.Flush()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command ledctl is a small command-line client for the ledctld control
// plane, used to inspect and change a running display's configuration
// without hand-rolling curl invocations.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var serverAddr string

func main() {
	root := &cobra.Command{
		Use:   "ledctl",
		Short: "Control client for a running ledctld daemon",
	}
	root.PersistentFlags().StringVar(&serverAddr, "addr", "http://localhost:8080", "ledctld control plane base URL")

	root.AddCommand(
		layoutCmd(),
		brightnessCmd(),
		patternCmd(),
		scheduleCmd(),
		powerCeilingCmd(),
		statusCmd(),
		patternsCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

func get(path string, out interface{}) error {
	resp, err := httpClient().Get(serverAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return httpError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func put(path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPut, serverAddr+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return httpError(resp)
	}
	return nil
}

func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("ledctl: %s: %s", resp.Status, bytes.TrimSpace(body))
}

func layoutCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Get or set the panel grid layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				var out map[string]interface{}
				if err := get("/layout", &out); err != nil {
					return err
				}
				return printJSON(out)
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var desc interface{}
			if err := json.Unmarshal(data, &desc); err != nil {
				return err
			}
			return put("/layout", desc)
		},
	}
	cmd.Flags().StringVar(&file, "set", "", "path to a layout document to apply; omit to print the current layout")
	return cmd
}

func brightnessCmd() *cobra.Command {
	var value uint8
	cmd := &cobra.Command{
		Use:   "brightness",
		Short: "Set the global brightness (0-255)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return put("/brightness", map[string]uint8{"brightness": value})
		},
	}
	cmd.Flags().Uint8Var(&value, "set", 255, "brightness value, 0-255")
	return cmd
}

func patternCmd() *cobra.Command {
	var name string
	var params map[string]string
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Select the active pattern generator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return put("/pattern", map[string]interface{}{"name": name, "params": params})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "pattern name, empty to fall back to external frames")
	cmd.Flags().StringToStringVar(&params, "param", nil, "pattern parameter, repeatable (key=value)")
	return cmd
}

func scheduleCmd() *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Force the display awake or asleep",
		RunE: func(cmd *cobra.Command, args []string) error {
			return put("/schedule", map[string]string{"state": state})
		},
	}
	cmd.Flags().StringVar(&state, "state", "awake", "\"awake\" or \"asleep\"")
	return cmd
}

func powerCeilingCmd() *cobra.Command {
	var amps float64
	var enabled bool
	cmd := &cobra.Command{
		Use:   "power-ceiling",
		Short: "Set the current limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return put("/power-ceiling", map[string]interface{}{"amps": amps, "enabled": enabled})
		},
	}
	cmd.Flags().Float64Var(&amps, "amps", 5, "current ceiling in amperes")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "whether the ceiling is enforced")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current status snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]interface{}
			if err := get("/status", &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func patternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the registered pattern generators",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out []string
			if err := get("/patterns", &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

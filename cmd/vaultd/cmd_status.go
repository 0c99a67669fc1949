// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"cosmossdk.io/math"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/api"
	"github.com/gulitsky/firedao-protocol/internal/node"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var cmdStatus = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running daemon",
	Args:  cobra.NoArgs,
	Run:   showStatus,
}

var flagStatus = struct {
	Server string
	Output outputFormat
}{Output: outputText}

func init() {
	cmdMain.AddCommand(cmdStatus)

	cmdStatus.Flags().StringVarP(&flagStatus.Server, "server", "s", "", "API address of the daemon (defaults to the configured listen address)")
	cmdStatus.Flags().VarP(&flagStatus.Output, "output", "o", "Output format: text, json, or yaml")
}

type outputFormat string

var _ pflag.Value = (*outputFormat)(nil)

const (
	outputText outputFormat = "text"
	outputJSON outputFormat = "json"
	outputYAML outputFormat = "yaml"
)

func (f *outputFormat) String() string { return string(*f) }
func (f *outputFormat) Type() string   { return "format" }

func (f *outputFormat) Set(s string) error {
	switch v := outputFormat(strings.ToLower(s)); v {
	case outputText, outputJSON, outputYAML:
		*f = v
		return nil
	default:
		return fmt.Errorf("unknown output format %q", s)
	}
}

type statusReport struct {
	Head   node.Head        `json:"head"`
	Vaults []*api.VaultInfo `json:"vaults"`
}

func showStatus(*cobra.Command, []string) {
	server := flagStatus.Server
	if server == "" {
		cfg, err := config.Load(flagMain.WorkDir)
		checkf(err, "load configuration")
		server = cfg.API.ListenAddress
	}
	client := &http.Client{Timeout: 10 * time.Second}

	report := new(statusReport)
	checkf(getJSON(client, server, "/status", &report.Head), "query status")

	var vaults []struct {
		ID string `json:"id"`
	}
	checkf(getJSON(client, server, "/vaults", &vaults), "query vaults")
	for _, v := range vaults {
		info := new(api.VaultInfo)
		checkf(getJSON(client, server, "/vaults/"+v.ID, info), "query vault %s", v.ID)
		report.Vaults = append(report.Vaults, info)
	}

	switch flagStatus.Output {
	case outputJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		check(enc.Encode(report))
		return
	case outputYAML:
		check(writeYAML(os.Stdout, report))
		return
	}

	var assets []*api.AssetInfo
	checkf(getJSON(client, server, "/assets", &assets), "query assets")
	decimals := map[string]uint8{}
	for _, a := range assets {
		decimals[a.ID] = a.Decimals
	}

	fmt.Printf("%s height %s, %s\n",
		color.GreenString("●"),
		color.CyanString(humanize.Comma(int64(report.Head.Height))),
		humanize.Time(report.Head.Time))

	for _, info := range report.Vaults {
		state := color.GreenString("active")
		switch {
		case info.Paused:
			state = color.RedString("paused")
		case info.Strategy == "":
			state = color.YellowString("no strategy")
		}

		d := decimals[info.Underlying]
		fmt.Printf("%s  %s\n", color.New(color.Bold).Sprint(info.ID), state)
		fmt.Printf("    strategy  %s\n", info.Strategy)
		fmt.Printf("    value     %s %s\n", units(info.TotalValue, d), info.Underlying)
		fmt.Printf("    idle      %s %s\n", units(info.Idle, d), info.Underlying)
		fmt.Printf("    yield     %s %s\n", units(info.Yield, d), info.Underlying)
	}
}

// writeYAML writes v as YAML. Amounts do not implement a YAML marshaller, so
// v goes through its JSON form first.
func writeYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc any
	err = json.Unmarshal(b, &doc)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err = enc.Encode(doc)
	if err != nil {
		return err
	}
	return enc.Close()
}

func getJSON(client *http.Client, server, path string, v any) error {
	resp, err := client.Get("http://" + server + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var e api.ErrorResponse
		if json.Unmarshal(b, &e) == nil && e.Message != "" {
			return fmt.Errorf("%s: %s", e.Status, e.Message)
		}
		return fmt.Errorf("%s", resp.Status)
	}
	return json.Unmarshal(b, v)
}

// units formats a base-unit amount in whole units with thousands
// separators.
func units(x math.Int, decimals uint8) string {
	if x.IsNil() {
		return "0"
	}
	f := new(big.Float).SetInt(x.BigInt())
	f.Quo(f, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
	return humanize.BigCommaf(f)
}

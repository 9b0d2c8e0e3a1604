package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sdk "github.com/cad/ovpm/sdk/go"
)

func (a *App) endpointTable() (sdk.EndpointTable, error) {
	if a.config.EndpointsFile == "" {
		return sdk.DefaultEndpoints(), nil
	}
	return sdk.LoadEndpointsFile(a.config.EndpointsFile)
}

func (a *App) endpointsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "Print the active endpoint table",
		Long: `Print the endpoint table calls are resolved against. With -o yaml the
output can be edited and passed back with --endpoints-file.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			table, err := a.endpointTable()
			if err != nil {
				return err
			}
			out := a.printer()
			if out.Format == FormatYAML {
				raw, err := sdk.MarshalEndpoints(table)
				if err != nil {
					return err
				}
				_, err = out.Out.Write(raw)
				return err
			}
			t := Table{Headers: []string{"Name", "Method", "Path"}}
			for _, name := range table.Names() {
				ep := table[name]
				t.Rows = append(t.Rows, []string{name, ep.Method.String(), ep.Path})
			}
			return out.Print(table, t)
		},
	}
}

// parseAssignments turns key=value arguments into a payload. Values that
// parse as JSON keep their type; anything else is a string.
func parseAssignments(args []string) (sdk.Payload, error) {
	payload := sdk.Payload{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", arg)
		}
		payload[key] = parseValue(raw)
	}
	return payload, nil
}

func parseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

func (a *App) callCommand() *cobra.Command {
	var auth bool
	cmd := &cobra.Command{
		Use:   "call <endpoint> [key=value...]",
		Short: "Invoke an endpoint by name and print the raw response",
		Example: `  ovpmctl call vpnStatus --auth
  ovpmctl call userDelete username=bob --auth
  ovpmctl call authenticate username=admin password=secret`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			payload, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			resp, err := session.Client().Call(ctx, args[0], payload, auth)
			if err != nil {
				return a.observe(ctx, session, err)
			}
			out := a.printer()
			if out.Format == FormatYAML {
				var v any
				if err := resp.Decode(&v); err != nil {
					return err
				}
				return out.Print(v, Table{})
			}
			if len(resp.Body) == 0 {
				return nil
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, resp.Body, "", "  "); err != nil {
				_, err = out.Out.Write(resp.Body)
				return err
			}
			pretty.WriteByte('\n')
			_, err = out.Out.Write(pretty.Bytes())
			return err
		},
	}
	cmd.Flags().BoolVar(&auth, "auth", false, "send the saved bearer token")
	return cmd
}

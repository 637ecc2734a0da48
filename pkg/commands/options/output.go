package options

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// OutputOptions
type OutputOptions struct {
	JSON   bool
	Format string
}

func AddOutputArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
	cmd.Flags().StringVarP(&po.Format, "output", "o", "",
		"Output format. One of 'json' or 'yaml'.")
}

// Structured reports whether output should be machine readable.
func (o *OutputOptions) Structured() bool {
	return o.JSON || o.Format != ""
}

func (o *OutputOptions) format() string {
	if o.JSON {
		return "json"
	}
	return strings.ToLower(strings.TrimSpace(o.Format))
}

// Print writes v in the selected structured format.
func (o *OutputOptions) Print(v any) error {
	return o.Fprint(color.Output, v)
}

func (o *OutputOptions) Fprint(w io.Writer, v any) error {
	switch f := o.format(); f {
	case "", "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml", "yml":
		b, err := toYAML(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unsupported output format %q (expected json or yaml)", f)
	}
}

// toYAML goes through JSON so field names follow the json tags.
func toYAML(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func (o *OutputOptions) HandleError(err error) error {
	if o.Structured() && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		if perr := o.Print(out); perr != nil {
			return perr
		}
		return nil
	}
	return err
}

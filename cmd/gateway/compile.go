package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"consolenav/internal/account"
	"consolenav/internal/menu"
	"consolenav/internal/route"
	"consolenav/internal/shape"
	"consolenav/internal/util/jsonutil"
)

var (
	compileIn       string
	compileRoles    []string
	compileRegistry string
	compileSelector string
	compileNav      bool
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a menu payload into route definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := os.ReadFile(compileIn)
		if err != nil {
			return err
		}
		reg := route.DefaultRegistry()
		if compileRegistry != "" {
			if reg, err = route.LoadRegistry(compileRegistry); err != nil {
				return err
			}
		}
		out, err := compileMenus(raw, compileSelector, reg, compileRoles, compileNav)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

type compileOutput struct {
	Routes     []route.Definition `json:"routes"`
	Navigation []*menu.Node       `json:"navigation,omitempty"`
}

func compileMenus(raw []byte, selector string, reg *route.Registry, roles []string, withNav bool) ([]byte, error) {
	payload, err := jsonutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode menu payload: %w", err)
	}
	if selector != "" {
		if payload, err = shape.Select(payload, selector); err != nil {
			return nil, err
		}
	}
	rows, err := shape.ExtractArray(payload)
	if err != nil {
		return nil, err
	}
	tree := menu.BuildTree(menu.NormalizeAll(rows))
	compiler := route.NewCompiler(reg)

	out := compileOutput{Routes: append(compiler.Compile(tree), compiler.CatchAll())}
	if withNav {
		var checker menu.RoleChecker
		if len(roles) > 0 {
			set := make(account.RoleSet, 0, len(roles))
			for _, r := range roles {
				set = append(set, strings.ToLower(strings.TrimSpace(r)))
			}
			checker = set
		}
		out.Navigation = menu.Navigation(tree, checker)
	}
	return jsonutil.MarshalNoEscape(out)
}

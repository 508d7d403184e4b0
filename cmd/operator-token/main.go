package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/service"
)

type issuedToken struct {
	Operator  string    `json:"operator"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	if err := run(os.Args[1:], cfg.JWT, time.Now(), os.Stdout); err != nil {
		logger.StdLogger().Fatalf("Issue operator token failed: %v", err)
	}
}

func run(args []string, jwtCfg config.JWTConfig, now time.Time, out io.Writer) error {
	fs := flag.NewFlagSet("operator-token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var operator, role string
	fs.StringVar(&operator, "operator", "", "运营账号标识，写入令牌 operator 声明")
	fs.StringVar(&role, "role", constants.OperatorRoleViewer, "角色: shipment_viewer 或 shipment_operator")
	if err := fs.Parse(args); err != nil {
		return err
	}

	operator = strings.TrimSpace(operator)
	if operator == "" {
		return fmt.Errorf("-operator is required")
	}
	role = strings.TrimSpace(role)
	switch role {
	case constants.OperatorRoleViewer, constants.OperatorRoleOperator:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	token, expiresAt, err := service.IssueOperatorToken(jwtCfg, operator, role, now)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(issuedToken{
		Operator:  operator,
		Role:      role,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

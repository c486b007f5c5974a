package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/falconhq/falcon/internal/auth"
)

type output struct {
	Token     string `json:"token"`
	TokenHash string `json:"token_hash"`
}

func main() {
	var (
		token  = flag.String("token", "", "Bearer token to hash; generated when empty")
		format = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	plaintext := *token
	if plaintext == "" {
		generated, err := generateToken()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate token:", err)
			os.Exit(1)
		}
		plaintext = generated
	}

	hash, err := auth.HashToken(plaintext)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash token:", err)
		os.Exit(1)
	}

	out := output{
		Token:     plaintext,
		TokenHash: hash,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println("token:     ", out.Token)
		fmt.Println("token_hash:", out.TokenHash)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func generateToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "falcron_" + base64.RawURLEncoding.EncodeToString(raw), nil
}

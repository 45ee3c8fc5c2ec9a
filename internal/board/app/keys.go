package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/agileboard/pkg/cryptox"
	"github.com/aussiebroadwan/agileboard/pkg/jwtx"
)

// Keys bundles the signing material the auth layer needs.
type Keys struct {
	Signer   *jwtx.Signer
	Verifier *jwtx.Verifier
	Pepper   string
}

// InitKeys loads the Ed25519 signing key and the password pepper from disk,
// generating either on first start. Both files must survive restarts:
// losing the key signs every user out and losing the pepper locks every
// user out.
func InitKeys(cfg Config, logger *slog.Logger) (Keys, error) {
	priv, err := cryptox.LoadOrCreateEd25519Key(cfg.SigningKey)
	if err != nil {
		return Keys{}, fmt.Errorf("signing key: %w", err)
	}

	signer, err := jwtx.NewSigner(priv)
	if err != nil {
		return Keys{}, fmt.Errorf("signer: %w", err)
	}

	verifier := jwtx.NewVerifier(jwtx.VerifyOptions{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	}, signer.PublicKey())

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return Keys{}, fmt.Errorf("pepper: %w", err)
	}

	logger.Info("signing key loaded",
		"kid", signer.KID(),
		"algorithm", signer.Alg(),
		"issuer", cfg.Issuer,
	)

	return Keys{Signer: signer, Verifier: verifier, Pepper: pepper}, nil
}

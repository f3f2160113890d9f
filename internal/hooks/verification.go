package hooks

import (
	"context"
	"fmt"

	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

const (
	verifiedField          = "_verified"
	verificationTokenField = "_verificationToken"
)

// VerificationSender delivers the account verification link.
type VerificationSender interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
}

// IssueVerificationToken marks a new user unverified and gives it a fresh
// token. Users a trusted caller creates as already verified get no token.
func IssueVerificationToken() BeforeChange {
	return func(ctx context.Context, args BeforeChangeArgs) (models.JSONB, error) {
		data := args.Data
		if verified, _ := data[verifiedField].(bool); verified {
			delete(data, verificationTokenField)
			return data, nil
		}

		token, err := utils.GenerateVerificationToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate verification token: %w", err)
		}
		data[verifiedField] = false
		data[verificationTokenField] = token
		return data, nil
	}
}

// SendVerification mails the token of a newly created user.
func SendVerification(sender VerificationSender) AfterChange {
	return func(ctx context.Context, args AfterChangeArgs) error {
		token := args.Record.Fields.String(verificationTokenField)
		if token == "" {
			return nil
		}
		return sender.SendVerificationEmail(ctx, args.Record.Fields.String("email"), token)
	}
}

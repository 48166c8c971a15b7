// internal/auth/register.go
package auth

import (
	"context"
	"net/http"

	domain "janmanch-client/internal/domain/auth"
	"janmanch-client/internal/httpclient"
	xerrors "janmanch-client/internal/pkg/errors"
)

const maxRegistrationDocuments = 4

// Register submits a new membership application: profile and address
// fields plus up to four identity documents as multipart parts. It never
// authenticates; the OTP flow follows it server-side.
func (c *Controller) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResponse, error) {
	if len(req.Documents) > maxRegistrationDocuments {
		return nil, xerrors.New(xerrors.KindValidation, http.StatusBadRequest,
			"at most 4 documents may be attached")
	}

	form := httpclient.NewForm().AddFields(req.Fields())
	for _, doc := range req.Documents {
		form.AddFile(doc.Field, doc.Filename, doc.Content)
	}

	var resp domain.RegisterResponse
	if err := c.http.PostMultipart(ctx, "/auth/register", form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendOTP asks the server to deliver a one-time password to the member.
func (c *Controller) SendOTP(ctx context.Context, identifier string) error {
	return c.http.Post(ctx, "/auth/register/send-otp",
		domain.SendOTPRequest{Identifier: identifier}, nil)
}

// VerifyOTP confirms the delivered one-time password.
func (c *Controller) VerifyOTP(ctx context.Context, identifier, otp string) error {
	return c.http.Post(ctx, "/auth/register/verify-otp",
		domain.VerifyOTPRequest{Identifier: identifier, OTP: otp}, nil)
}

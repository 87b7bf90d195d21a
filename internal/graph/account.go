package graph

import (
	"context"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/todochat/internal/auth"
	"github.com/dukerupert/todochat/internal/email"
	"github.com/dukerupert/todochat/internal/model"
)

var errInvalidLogin = newError(CodeUnauthenticated, "Invalid email or password")

func (r *Resolver) Me(ctx context.Context) *UserResolver {
	c, ok := auth.FromContext(ctx)
	if !ok || c.User == nil {
		return nil
	}
	return &UserResolver{r: r, u: c.User}
}

type registerArgs struct {
	Email    string
	Password string
	Username *string
}

// Register creates an unverified account, or reissues the code for one that
// is still unverified, and emails the code.
func (r *Resolver) Register(ctx context.Context, args registerArgs) (*VerificationResultResolver, error) {
	existing, err := r.users.GetByEmail(ctx, args.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.IsVerified {
			return nil, newError(CodeBadUserInput, "User with that email already exists")
		}
		if err := r.reissueCode(ctx, existing, args.Username); err != nil {
			return nil, err
		}
		return verificationResult("Verification code has been sent to your email."), nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(args.Password), r.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, newError(CodeBadUserInput, "Password is too long")
	}
	if err != nil {
		return nil, err
	}

	code, err := freshCode(nil)
	if err != nil {
		return nil, err
	}
	if _, err := r.users.CreateUnverified(ctx, args.Email, args.Username, string(hash), code, r.now().Add(VerificationTTL)); err != nil {
		return nil, err
	}

	if err := r.sendVerification(ctx, args.Email, code); err != nil {
		return nil, err
	}
	return verificationResult("Please check your email for a verification code."), nil
}

type verifyEmailArgs struct {
	Email string
	Code  string
}

func (r *Resolver) VerifyEmail(ctx context.Context, args verifyEmailArgs) (*AuthPayloadResolver, error) {
	u, err := r.users.GetByEmail(ctx, args.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("User")
	}
	if u.IsVerified {
		return nil, newError(CodeBadUserInput, "Email is already verified")
	}
	if !u.CodeMatches(args.Code) {
		return nil, newError(CodeBadUserInput, "Invalid verification code")
	}
	if u.CodeExpired(r.now()) {
		return nil, newError(CodeBadUserInput, "Verification code has expired")
	}

	verified, err := r.users.MarkVerified(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return r.session(verified)
}

type emailArgs struct {
	Email string
}

func (r *Resolver) ResendVerificationCode(ctx context.Context, args emailArgs) (*VerificationResultResolver, error) {
	u, err := r.users.GetByEmail(ctx, args.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("User")
	}
	if u.IsVerified {
		return nil, newError(CodeBadUserInput, "Email is already verified")
	}
	if err := r.reissueCode(ctx, u, nil); err != nil {
		return nil, err
	}
	return verificationResult("A new verification code has been sent to your email."), nil
}

type loginArgs struct {
	Email    string
	Password string
}

func (r *Resolver) Login(ctx context.Context, args loginArgs) (*AuthPayloadResolver, error) {
	u, err := r.users.GetByEmail(ctx, args.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errInvalidLogin
	}
	if !u.IsVerified {
		return nil, newError(CodeUnauthenticated, "Email not verified. Please verify your email before logging in.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(args.Password)); err != nil {
		return nil, errInvalidLogin
	}
	return r.session(u)
}

type adminLoginArgs struct {
	Username string
	Password string
}

// AdminLogin checks the configured admin literals. No user row is involved.
func (r *Resolver) AdminLogin(ctx context.Context, args adminLoginArgs) (*AdminLoginResponseResolver, error) {
	if r.cfg.AdminLogin == "" || r.cfg.AdminPassword == "" {
		return nil, newError(CodeInternal, "Admin credentials not configured")
	}
	userOK := subtle.ConstantTimeCompare([]byte(args.Username), []byte(r.cfg.AdminLogin)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(args.Password), []byte(r.cfg.AdminPassword)) == 1
	if !userOK || !passOK {
		r.logger.Warn("admin login failed", "origin", auth.Origin(ctx))
		return nil, newError(CodeUnauthenticated, "Invalid admin credentials")
	}

	token, err := r.codec.IssueAdmin(r.cfg.AdminLogin)
	if err != nil {
		return nil, err
	}
	return &AdminLoginResponseResolver{token: token}, nil
}

func (r *Resolver) session(u *model.User) (*AuthPayloadResolver, error) {
	token, err := r.codec.IssueSession(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthPayloadResolver{token: token, user: &UserResolver{r: r, u: u}}, nil
}

// reissueCode stores a new code and expiry for u and emails it. The code is
// persisted before sending, so a failed send leaves a valid code behind.
func (r *Resolver) reissueCode(ctx context.Context, u *model.User, username *string) error {
	code, err := freshCode(u.VerificationCode)
	if err != nil {
		return err
	}
	if _, err := r.users.SetVerificationCode(ctx, u.ID, code, r.now().Add(VerificationTTL), username); err != nil {
		return err
	}
	return r.sendVerification(ctx, u.Email, code)
}

func (r *Resolver) sendVerification(ctx context.Context, to, code string) error {
	if err := r.mailer.Send(ctx, email.VerificationMessage(to, code)); err != nil {
		r.logger.Error("send verification email", "to", to, "error", err)
		return &Error{
			Code:    CodeEmailDeliveryFailed,
			Message: "Failed to send verification email. Please try again later.",
			Err:     err,
		}
	}
	return nil
}

// freshCode generates a code that differs from previous.
func freshCode(previous *string) (string, error) {
	for {
		code, err := email.GenerateCode()
		if err != nil {
			return "", err
		}
		if previous == nil || *previous != code {
			return code, nil
		}
	}
}

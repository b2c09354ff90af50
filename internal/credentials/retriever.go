// Package credentials retrieves and decrypts the one-time Administrator
// password generated for a Windows instance.
//
// EC2 does not produce the password blob until the instance completes first
// boot, so retrieval is two nested concerns: poll the GetPasswordData API
// until a non-empty blob appears, then decrypt the base64 ciphertext locally
// with the private half of the launch key. Decryption failure is fatal and
// never retried: another attempt cannot fix a cryptographic mismatch.
//
// The plaintext is a secret. It is never logged, never written to disk, and
// held only as long as the inventory patch and access summary need it.
package credentials

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/smithy-go"

	"github.com/dnedic/dc-deploy/internal/util/retry"
)

const (
	// DefaultMaxAttempts and DefaultInterval mirror the network-readiness
	// ceiling: password generation is gated by the same first-boot
	// completion the WinRM probe waits for.
	DefaultMaxAttempts = 20
	DefaultInterval    = 30 * time.Second
)

// UnavailableError indicates the attempt budget was exhausted without the
// platform ever publishing a password blob.
type UnavailableError struct {
	InstanceID string
	Attempts   int
	Budget     time.Duration
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("password for instance %s not available after %d attempts (%v)",
		e.InstanceID, e.Attempts, e.Budget)
}

// DecryptionError indicates the published ciphertext could not be decrypted
// with the supplied launch key: malformed base64, wrong key, or a padding
// mismatch. The underlying cause is kept for diagnostics; no key or password
// material appears in the message.
type DecryptionError struct {
	InstanceID string
	Err        error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("failed to decrypt password for instance %s: %v", e.InstanceID, e.Err)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// PasswordDataAPI is the slice of the EC2 client the retriever uses.
type PasswordDataAPI interface {
	GetPasswordData(ctx context.Context, params *ec2.GetPasswordDataInput, optFns ...func(*ec2.Options)) (*ec2.GetPasswordDataOutput, error)
}

// Logger receives progress output during polling.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Retriever polls EC2 for the encrypted one-time password and decrypts it.
type Retriever struct {
	API PasswordDataAPI

	// Log receives polling progress. Nil disables it.
	Log Logger
}

// NewRetriever creates a retriever over the given EC2 API.
func NewRetriever(api PasswordDataAPI) *Retriever {
	return &Retriever{API: api}
}

// NewEC2Client builds an EC2 client for the given region using the ambient
// AWS credential chain.
func NewEC2Client(ctx context.Context, region string) (*ec2.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return ec2.NewFromConfig(cfg), nil
}

// FetchPassword polls for the password blob and, once one is observed,
// decrypts it with privateKey. Empty blobs are "not yet ready", not errors.
// The first non-empty blob observed is the one decrypted; polling stops
// immediately at that point.
func (r *Retriever) FetchPassword(ctx context.Context, instanceID string, privateKey *rsa.PrivateKey, maxAttempts int, interval time.Duration) (string, error) {
	start := time.Now()
	attempts := 0
	var ciphertext string

	err := retry.WithFixedBackoff(ctx, func(attempt int) error {
		attempts = attempt
		r.logf("Attempt %d/%d - requesting password data for %s...", attempt, maxAttempts, instanceID)

		out, err := r.API.GetPasswordData(ctx, &ec2.GetPasswordDataInput{
			InstanceId: aws.String(instanceID),
		})
		if err != nil {
			if isFatalAPIError(err) {
				return retry.Fatal(err)
			}
			r.logf("  request failed (%v), will retry", err)
			return err
		}

		data := strings.TrimSpace(aws.ToString(out.PasswordData))
		if data == "" {
			r.logf("  password not generated yet, waiting %v...", interval)
			return errors.New("password data not yet available")
		}

		ciphertext = data
		return nil
	}, retry.WithMaxAttempts(maxAttempts), retry.WithInterval(interval))

	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return "", &UnavailableError{
				InstanceID: instanceID,
				Attempts:   attempts,
				Budget:     time.Since(start).Round(time.Second),
			}
		}
		return "", err
	}

	plaintext, err := Decrypt(ciphertext, privateKey)
	if err != nil {
		return "", &DecryptionError{InstanceID: instanceID, Err: err}
	}

	r.logf("Password retrieved successfully after %d attempt(s)", attempts)
	return plaintext, nil
}

// Decrypt base64-decodes the blob and decrypts it with the private half of
// the launch key. EC2 seals the generated password with PKCS#1 v1.5.
func Decrypt(ciphertext string, privateKey *rsa.PrivateKey) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(ciphertext), ""))
	if err != nil {
		return "", fmt.Errorf("malformed base64 ciphertext: %w", err)
	}

	plaintext, err := rsa.DecryptPKCS1v15(nil, privateKey, raw)
	if err != nil {
		return "", fmt.Errorf("RSA decryption failed: %w", err)
	}
	return string(plaintext), nil
}

// isFatalAPIError reports whether an EC2 API error cannot be cured by
// waiting: credential and authorization failures stay broken no matter how
// long the instance boots. NotFound right after creation is transient
// (eventual consistency) and stays retryable.
func isFatalAPIError(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "AuthFailure", "UnauthorizedOperation", "InvalidParameterValue":
		return true
	default:
		return false
	}
}

func (r *Retriever) logf(format string, v ...interface{}) {
	if r.Log != nil {
		r.Log.Printf(format, v...)
	}
}

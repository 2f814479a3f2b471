package retry

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/jgivc/coursefetch/internal/common"
)

// NetworkClassifier maps transport failures to retry actions.
//
// TLS failures retry at once. Timeouts, refused or reset connections, DNS failures
// and anything unknown retry after delay. Cancellation, filesystem errors and
// permanent HTTP statuses (4xx other than 408 and 429) are fatal.
func NetworkClassifier(delay time.Duration) Classifier {
	return func(err error) Action {
		var (
			dnsErr       *net.DNSError
			certErr      *tls.CertificateVerificationError
			unknownCA    x509.UnknownAuthorityError
			hostnameErr  x509.HostnameError
			certInvalid  x509.CertificateInvalidError
			recordHdrErr tls.RecordHeaderError
			netErr       net.Error
		)

		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, common.ErrInterrupted):
			return Fatal()
		case errors.Is(err, common.ErrFilesystem):
			return Fatal()
		case errors.As(err, &certErr), errors.As(err, &unknownCA), errors.As(err, &hostnameErr),
			errors.As(err, &certInvalid), errors.As(err, &recordHdrErr):
			return RetryImmediately("SSL error occurred retrying...")
		case errors.Is(err, common.ErrTimeout), errors.Is(err, os.ErrDeadlineExceeded),
			errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
			return RetryAfterDelay(delay, "Server timed out retrying...")
		case errors.As(err, &dnsErr):
			return RetryAfterDelay(delay, "Network error retrying...")
		case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
			errors.Is(err, syscall.ECONNABORTED), errors.Is(err, syscall.ENETUNREACH):
			action := RetryAfterDelay(delay, "Connection error.")
			action.Hint = "Try checking your internet connection."

			return action
		}

		var statusErr *common.StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return Fatal()
		}

		var opErr *net.OpError
		if errors.As(err, &opErr) {
			action := RetryAfterDelay(delay, "Connection error.")
			action.Hint = "Try checking your internet connection."

			return action
		}

		return RetryAfterDelay(delay, "Unknown error occurred retrying...")
	}
}

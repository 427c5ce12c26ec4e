package kes

import (
	"errors"
	"fmt"
	goLog "log"

	"go.uber.org/zap"
)

// Kind of an Error.
type ErrorKind int

const (
	ErrGeneric ErrorKind = iota

	// Sign, verify or update was asked for a period outside the valid window.
	ErrPeriodOutOfRange

	// The sibling seed needed to cross into the right subtree was already
	// consumed.  Only reachable by driving Update non-monotonically.
	ErrKeyExpired

	// A signature or the verification key reconstructed from it did not check.
	ErrVerificationFailed

	// A buffer passed in had the wrong length.
	ErrWrongLength

	// The operating system refused to map secure memory.
	ErrAllocationFailed

	// Secure memory could not be locked into RAM.
	ErrLockFailed

	// A signing key handle was used after Update or Forget consumed it.
	ErrKeyConsumed

	// Unsupported or inconsistent Params.
	ErrInvalidParams

	// The base signature algorithm failed.
	ErrBase

	// A key container is locked by another process.
	ErrLocked

	// Reading or writing a key container failed.
	ErrIO
)

func (kind ErrorKind) String() string {
	switch kind {
	case ErrPeriodOutOfRange:
		return "period out of range"
	case ErrKeyExpired:
		return "key expired"
	case ErrVerificationFailed:
		return "verification failed"
	case ErrWrongLength:
		return "wrong length"
	case ErrAllocationFailed:
		return "allocation failed"
	case ErrLockFailed:
		return "lock failed"
	case ErrKeyConsumed:
		return "key consumed"
	case ErrInvalidParams:
		return "invalid params"
	case ErrBase:
		return "base algorithm"
	case ErrLocked:
		return "locked"
	case ErrIO:
		return "i/o"
	}
	return "error"
}

// Error returned by the functions of this package.
type Error interface {
	error

	// The class of failure.
	Kind() ErrorKind

	// Returns the wrapped error, if any.
	Inner() error
}

type errorImpl struct {
	msg   string
	kind  ErrorKind
	inner error

	period    Period // for ErrPeriodOutOfRange
	maxPeriod Period // for ErrPeriodOutOfRange
	code      int    // for ErrLockFailed
}

func (err *errorImpl) Kind() ErrorKind { return err.kind }
func (err *errorImpl) Inner() error    { return err.inner }
func (err *errorImpl) Unwrap() error   { return err.inner }

func (err *errorImpl) Error() string {
	if err.inner != nil {
		return fmt.Sprintf("%s: %s", err.msg, err.inner.Error())
	}
	return err.msg
}

// Formats a new Error
func errorf(kind ErrorKind, format string, a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...), kind: kind}
}

// Formats a new Error that wraps another
func wrapErrorf(err error, kind ErrorKind, format string,
	a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...), kind: kind, inner: err}
}

func periodOutOfRange(period, max Period) *errorImpl {
	ret := errorf(ErrPeriodOutOfRange,
		"period %d out of range: algorithm has %d periods", period, max)
	ret.period = period
	ret.maxPeriod = max
	return ret
}

func wrongLength(what string, expected, actual int) *errorImpl {
	return errorf(ErrWrongLength, "wrong length for %s: expected %d, got %d",
		what, expected, actual)
}

var errConsumed = errorf(ErrKeyConsumed, "signing key was already updated or forgotten")

// IsKind reports whether err, or any error it wraps, is an Error of the
// given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var kerr Error
		if !errors.As(err, &kerr) {
			return false
		}
		if kerr.Kind() == kind {
			return true
		}
		err = kerr.Inner()
	}
	return false
}

// Returns the period and the number of periods carried by an
// ErrPeriodOutOfRange error.
func OutOfRangePeriods(err error) (period, max Period, ok bool) {
	var impl *errorImpl
	for errors.As(err, &impl) {
		if impl.kind == ErrPeriodOutOfRange {
			return impl.period, impl.maxPeriod, true
		}
		err = impl.inner
	}
	return 0, 0, false
}

// Returns the errno carried by an ErrLockFailed error.
func LockErrorCode(err error) (code int, ok bool) {
	var impl *errorImpl
	for errors.As(err, &impl) {
		if impl.kind == ErrLockFailed {
			return impl.code, true
		}
		err = impl.inner
	}
	return 0, false
}

type dummyLogger struct{}
type stdlibLogger struct{}
type zapLogger struct{ s *zap.SugaredLogger }

func (logger *dummyLogger) Logf(format string, a ...interface{}) {}

func (logger *stdlibLogger) Logf(format string, a ...interface{}) {
	goLog.Printf(format, a...)
}

func (logger *zapLogger) Logf(format string, a ...interface{}) {
	logger.s.Infof(format, a...)
}

var log Logger = &dummyLogger{}

type Logger interface {
	Logf(format string, a ...interface{})
}

// Enables logging to log package.  For more flexibility, see SetLogger().
func EnableLogging() {
	SetLogger(&stdlibLogger{})
}

// Enables logging.  Disable logging by passing nil.
//
// Use EnableLogging if you want to log to the log package.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}

// Returns a Logger that writes to the given zap logger at info level.
func NewZapLogger(logger *zap.Logger) Logger {
	return &zapLogger{s: logger.Sugar()}
}

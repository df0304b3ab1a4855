package byteflow

// Logger is the reporting collaborator injected into servers and
// connections. Failure handling never writes to the transport: errors
// are local and operational, reported here only.
//
// *logging.Logger from github.com/op/go-logging satisfies the interface.
type Logger interface {
	Critical(args ...interface{})
	Criticalf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Warning(args ...interface{})
	Warningf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger discards everything; used when no logger is supplied.
type nopLogger struct{}

func (nopLogger) Critical(args ...interface{})                 {}
func (nopLogger) Criticalf(format string, args ...interface{}) {}
func (nopLogger) Error(args ...interface{})                    {}
func (nopLogger) Errorf(format string, args ...interface{})    {}
func (nopLogger) Warning(args ...interface{})                  {}
func (nopLogger) Warningf(format string, args ...interface{})  {}
func (nopLogger) Info(args ...interface{})                     {}
func (nopLogger) Infof(format string, args ...interface{})     {}
func (nopLogger) Debug(args ...interface{})                    {}
func (nopLogger) Debugf(format string, args ...interface{})    {}

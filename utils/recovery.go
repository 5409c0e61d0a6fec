package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"
)

var (
	panicMtx sync.Mutex
	panicDir = "."
)

// SetPanicDir sets where panic dumps are written.  The default is the
// working directory.
func SetPanicDir(dir string) {
	panicMtx.Lock()
	panicDir = dir
	panicMtx.Unlock()
}

// MyRecover recovers a panicking goroutine, logs it and dumps the stack to a
// panic file.  It must be deferred directly.
func MyRecover() {
	if err := recover(); err != nil {
		dumpPanic(err)
	}
}

// RecoverWith is MyRecover followed by onPanic, for callers that must learn
// their goroutine died.  It must be deferred directly.
func RecoverWith(onPanic func(err interface{})) {
	if err := recover(); err != nil {
		dumpPanic(err)
		onPanic(err)
	}
}

func dumpPanic(err interface{}) {
	stack := debug.Stack()
	log.Criticalf("Recovered from panic: %v", err)
	log.Debugf("Stack trace:\n%s", stack)
	if _, derr := DumpPanicInfo(fmt.Sprintf("%v\n%s", err, stack)); derr != nil {
		log.Errorf("Unable to write panic dump: %v", derr)
	}
}

// DumpPanicInfo writes info to a timestamped panic file and returns its path.
func DumpPanicInfo(info string) (string, error) {
	panicMtx.Lock()
	dir := panicDir
	panicMtx.Unlock()

	now := time.Now()
	name := filepath.Join(dir, fmt.Sprintf("panic_dump_%s_%d", now.Format("20060102150405"), now.UnixNano()))
	log.Infof("Dumping panic info to %v...", name)
	if err := os.WriteFile(name, []byte(info), 0600); err != nil {
		return "", err
	}
	return name, nil
}

package dbgproto

import "runtime"

var hostArchName = runtime.GOARCH

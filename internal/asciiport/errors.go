package asciiport

import "github.com/stev4501/e84ctl/internal/e84err"

var errSerialTimeout = e84err.New(e84err.KindSerialTimeout, "no response within deadline")

package digitalio

var (
	tcgets = uintptr(0x5401)
	tcsets = uintptr(0x5402)

	tiocmget = uintptr(0x5415) // get status
	tiocmbis = uintptr(0x5416) // set indicated bits
	tiocmbic = uintptr(0x5417) // clear indicated bits
	tiocmset = uintptr(0x5418) // set status
)

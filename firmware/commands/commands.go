package commands

// Command is a single-byte instruction received on the serial console
type Command struct {
	Flag        byte
	Run         func(Controller)
	Description string
}

// Controller is the part of the control loop that serial commands can act on. Requests are applied on the
// next tick, the same as if the physical button was pressed
type Controller interface {
	RequestFeed()
	RequestModeToggle()
	ResetTimer()
	Debug()
	Verbose()
}

// ByteReader is a non-blocking serial input. machine.Serial implements it and returns an error when its
// buffer is empty
type ByteReader interface {
	ReadByte() (byte, error)
}

var (
	FeedCommand = &Command{
		Flag: 'F',
		Run: func(c Controller) {
			c.RequestFeed()
		},
		Description: "Feed now. Works in both modes.",
	}
	ModeCommand = &Command{
		Flag: 'M',
		Run: func(c Controller) {
			c.RequestModeToggle()
		},
		Description: "Toggle between automatic and manual mode.",
	}
	ResetTimerCommand = &Command{
		Flag: 'R',
		Run: func(c Controller) {
			c.ResetTimer()
		},
		Description: "Restart the feed timer without feeding.",
	}
	DebugCommand = &Command{
		Flag: 'D',
		Run: func(c Controller) {
			c.Debug()
		},
		Description: "Print the current status.",
	}
	VerboseCommand = &Command{
		Flag: 'V',
		Run: func(c Controller) {
			c.Verbose()
		},
		Description: "Enable verbose output.",
	}
	HelpCommand = &Command{
		Flag:        'H',
		Description: "Show all available commands and their descriptions.",
		Run: func(Controller) {
			println("Available Commands:")
			for _, cmd := range commands {
				println(string(cmd.Flag) + ": " + cmd.Description)
			}
		},
	}
)

var commands = []*Command{
	FeedCommand,
	ModeCommand,
	ResetTimerCommand,
	DebugCommand,
	VerboseCommand,
}

var cmdMap = func() map[byte]*Command {
	m := map[byte]*Command{
		HelpCommand.Flag: HelpCommand,
	}
	for _, cmd := range commands {
		m[cmd.Flag] = cmd
	}
	return m
}()

// Poll runs every command waiting in r and returns how many ran. Unknown bytes, including line endings,
// are skipped. It returns as soon as r has nothing left to read
func Poll(c Controller, r ByteReader) int {
	var n int
	for {
		cmdIn, err := r.ReadByte()
		if err != nil {
			return n
		}

		cmd, ok := cmdMap[cmdIn]
		if !ok {
			continue
		}

		cmd.Run(c)
		n++
	}
}

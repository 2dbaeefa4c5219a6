package pipeline

// Key names as reported by the window toolkit
const (
	KeyLeft  = "Left"
	KeyRight = "Right"
	KeyUp    = "Up"
	KeyDown  = "Down"
	KeySpace = "Space"
)

var runeCommands = map[rune]Command{
	'v': CmdSourceVideo,
	'c': CmdSourceCamera,
	'i': CmdSourceImage,
	'm': CmdMirror,
	'M': CmdStyleMirror,
	'n': CmdFlip,
	'N': CmdStyleFlip,
	' ': CmdTogglePause,
	'r': CmdRestart,
	'k': CmdToggleStyleInput,
	'p': CmdTogglePip,
	'a': CmdToggleAuto,
	'f': CmdToggleFullscreen,
	's': CmdSaveOutput,
	'S': CmdToggleStyleSave,
	'd': CmdToggleDebug,
}

// CommandForRune maps a typed character to its command
func CommandForRune(r rune) Command {
	return runeCommands[r]
}

// CommandForKey maps a named key to its command. Space toggles playback,
// or takes the style while a style input is shown.
func CommandForKey(name string, shift bool) Command {
	switch name {
	case KeyLeft:
		return CmdStylePrevious
	case KeyRight:
		return CmdStyleNext
	case KeyUp:
		if shift {
			return CmdVideoNext
		}
		return CmdFrameNext
	case KeyDown:
		if shift {
			return CmdVideoPrevious
		}
		return CmdFramePrevious
	case KeySpace:
		return CmdTogglePause
	}
	return CmdNone
}

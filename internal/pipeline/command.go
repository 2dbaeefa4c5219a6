package pipeline

// Command is a user or remote request applied at the start of a tick
type Command int

const (
	CmdNone Command = iota
	CmdSourceImage
	CmdSourceVideo
	CmdSourceCamera
	CmdStyleNext
	CmdStylePrevious
	CmdStylePath
	CmdStyleTake
	CmdTogglePause
	CmdFrameNext
	CmdFramePrevious
	CmdVideoNext
	CmdVideoPrevious
	CmdRestart
	CmdMirror
	CmdFlip
	CmdStyleMirror
	CmdStyleFlip
	CmdToggleAuto
	CmdToggleStyleInput
	CmdTogglePip
	CmdToggleDebug
	CmdToggleFullscreen
	CmdSaveOutput
	CmdSaveStyle
	CmdToggleStyleSave
	CmdResize
	CmdRefreshStyles
)

var commandNames = map[Command]string{
	CmdNone:             "none",
	CmdSourceImage:      "source_image",
	CmdSourceVideo:      "source_video",
	CmdSourceCamera:     "source_camera",
	CmdStyleNext:        "style_next",
	CmdStylePrevious:    "style_previous",
	CmdStylePath:        "style_path",
	CmdStyleTake:        "style_take",
	CmdTogglePause:      "toggle_pause",
	CmdFrameNext:        "frame_next",
	CmdFramePrevious:    "frame_previous",
	CmdVideoNext:        "video_next",
	CmdVideoPrevious:    "video_previous",
	CmdRestart:          "restart",
	CmdMirror:           "mirror",
	CmdFlip:             "flip",
	CmdStyleMirror:      "style_mirror",
	CmdStyleFlip:        "style_flip",
	CmdToggleAuto:       "toggle_auto",
	CmdToggleStyleInput: "toggle_style_input",
	CmdTogglePip:        "toggle_pip",
	CmdToggleDebug:      "toggle_debug",
	CmdToggleFullscreen: "toggle_fullscreen",
	CmdSaveOutput:       "save_output",
	CmdSaveStyle:        "save_style",
	CmdToggleStyleSave:  "toggle_style_save",
	CmdResize:           "resize",
	CmdRefreshStyles:    "refresh_styles",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Event is a queued command with its arguments
type Event struct {
	Cmd Command

	Path   string   // CmdStylePath
	Paths  []string // CmdRefreshStyles
	Width  int      // CmdResize
	Height int      // CmdResize
}

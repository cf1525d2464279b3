package subtitles

// Aeneas invocation.
const (
	aeneasModule     = "aeneas.tools.execute_task"
	aeneasAudioName  = "audio.mp3"
	aeneasTextName   = "text.txt"
	aeneasOutputName = "align.json"
	aeneasTaskFormat = "task_language=%s|is_text_type=plain|os_task_file_format=json|task_adjust_boundary_algorithm=percent|task_adjust_boundary_percent_value=50"
)

// Tolerance when comparing the last cue end to the movie length.
const subtitleOverrunToleranceMS = 2000

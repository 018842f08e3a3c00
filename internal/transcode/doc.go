// Package transcode burns subtitles into video with ffmpeg.
//
// StyleConfig.Compile renders an ASS force_style string, BuildCommand
// assembles the ffmpeg argument vector around it, and Supervisor runs the
// process: it streams stderr line by line (ffmpeg redraws its status line with
// carriage returns), classifies each line as progress or log, and terminates
// the process group when the context is cancelled.
package transcode

// Package preflight provides readiness checks for the filesystem paths and
// external tools storybuilder depends on.
//
// The CLI "storybuilder check" command runs RunAll and CheckSystemDeps to
// report whether a run can succeed before any rendering starts. Book source
// checks walk every configured chapter, so a missing recording surfaces here
// instead of halfway through the audio stage.
package preflight

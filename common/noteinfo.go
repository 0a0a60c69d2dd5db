package common

// NoteInfo is what the pattern view needs to draw one cell
type NoteInfo interface {
    GetName() string
    GetSampleName() string
    GetEffectName() string
}

package mod

const (
    MaxVolume = 64
)

// VolumeTable maps a channel mix volume and a raw sample byte to the value added into
// the accumulation buffer
type VolumeTable [MaxVolume + 1][256]int

// MakeVolumeTable computes masterVolume * mixVolume * sample / 64 for every entry.
// Sample bytes are signed 8-bit, so 0x80 is -128 and 0xff is -1.
func MakeVolumeTable(masterVolume int) *VolumeTable {
    masterVolume = min(max(masterVolume, 0), MaxVolume)

    var table VolumeTable
    for volume := range MaxVolume + 1 {
        for raw := range 256 {
            table[volume][raw] = masterVolume * volume * int(int8(raw)) / 64
        }
    }

    return &table
}

func clampVolume(volume int) int {
    return min(max(volume, 0), MaxVolume)
}

package emotion

// Tier 十个强度档位之一
type Tier struct {
	Label string
	Emoji string
	Color string
}

const (
	MinTier = 1
	MaxTier = 10
)

var tierTable = [MaxTier + 1]Tier{
	1:  {Label: "Numb", Emoji: "😶", Color: "#9CA3AF"},
	2:  {Label: "Calm", Emoji: "😌", Color: "#60A5FA"},
	3:  {Label: "Mellow", Emoji: "🙂", Color: "#34D399"},
	4:  {Label: "Stirred", Emoji: "😯", Color: "#A3E635"},
	5:  {Label: "Tense", Emoji: "😬", Color: "#FACC15"},
	6:  {Label: "Heated", Emoji: "😤", Color: "#FB923C"},
	7:  {Label: "Stormy", Emoji: "⛈️", Color: "#F97316"},
	8:  {Label: "Explosive", Emoji: "🤯", Color: "#EF4444"},
	9:  {Label: "Meltdown", Emoji: "😱", Color: "#DC2626"},
	10: {Label: "DRAMA BOMB", Emoji: "💣", Color: "#B91C1C"},
}

// TierFor 返回档位对应的表项，越界值会被截断到有效范围
func TierFor(tier int) Tier {
	return tierTable[clampTier(tier)]
}

func clampTier(tier int) int {
	if tier < MinTier {
		return MinTier
	}
	if tier > MaxTier {
		return MaxTier
	}
	return tier
}

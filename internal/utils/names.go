package utils

import (
	"math/rand/v2"
)

// =============================================================================
// RANDOM NAMES
// =============================================================================

var (
	adjectives = []string{
		"Sleepy", "Brave", "Fuzzy", "Grumpy", "Sneaky", "Jolly", "Quiet", "Rusty",
		"Dizzy", "Lucky", "Clumsy", "Swift", "Mellow", "Cheeky", "Bold", "Witty",
	}
	animals = []string{
		"Otter", "Badger", "Penguin", "Llama", "Falcon", "Gecko", "Walrus", "Panda",
		"Lynx", "Moose", "Heron", "Yak", "Koala", "Ferret", "Puffin", "Marmot",
	}
	relics = []string{
		"Silver Compass", "Iron Lantern", "Crystal Hourglass", "Copper Key", "Jade Amulet",
		"Broken Crown", "Golden Quill", "Obsidian Dagger", "Amber Ring", "Velvet Map",
	}
	places = []string{
		"Harbor Town", "Misty Peaks", "Old Library", "Sunken Keep", "Glass Desert",
		"Whispering Woods", "Frozen Lake", "Clockwork Tower", "Salt Marsh", "Lantern Bay",
	}
)

// RandomUsername returns a display name for clients that didn't bring one.
func RandomUsername() string {
	return pick(adjectives) + " " + pick(animals)
}

// RandomRoomName returns a human readable room id. Collisions are possible
// and harmless: two clients asking for a new room would just meet.
func RandomRoomName() string {
	return pick(relics) + " " + pick(places)
}

func pick(words []string) string {
	return words[rand.IntN(len(words))]
}

package meme

import "CoinDash/internal/domain/models"

const curatedSource = "CryptoMemes.com"

func curated(id, title, url string, cat models.MemeCategory, desc string, tags ...string) models.Meme {
	return models.Meme{ID: id, Title: title, URL: url, Source: curatedSource, Tags: tags, Description: desc, Category: cat}
}

func curatedMemes() []models.Meme {
	return []models.Meme{
		curated("hodl-1", "HODL the Line! 💎🙌", "https://images.unsplash.com/photo-1639762681485-074b7f938ba0?w=400&h=300&fit=crop&crop=center",
			models.MemeHODL, "When the market dips but you stay strong", "HODL", "BTC", "DIAMOND_HANDS"),
		curated("pump-1", "To The Moon! 🚀", "https://images.unsplash.com/photo-1446776811953-b23d57bd21aa?w=400&h=300&fit=crop&crop=center",
			models.MemePump, "Every crypto trader's dream", "PUMP", "MOON", "LAMBO"),
		curated("fomo-1", "FOMO is Real 😰", "https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=400&h=300&fit=crop&crop=center",
			models.MemeFOMO, "When you see everyone else making money", "FOMO", "PANIC", "BUY"),
		curated("dump-1", "Paper Hands 📄", "https://images.unsplash.com/photo-1589820296150-ecf34d9c2e6a?w=400&h=300&fit=crop&crop=center",
			models.MemeDump, "Selling at the first sign of trouble", "DUMP", "PAPER_HANDS", "SELL"),
		curated("fud-1", "FUD Spreaders 🤡", "https://images.unsplash.com/photo-1518709268805-4e9042af2176?w=400&h=300&fit=crop&crop=center",
			models.MemeFUD, "Spreading fear, uncertainty, and doubt", "FUD", "BEAR", "NEGATIVE"),
		curated("whale-1", "Whale Watching 🐋", "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=400&h=300&fit=crop&crop=center",
			models.MemeGeneral, "Following the big players", "WHALE", "BIG_MONEY", "MOVEMENT"),
		curated("diamond-1", "Diamond Hands 💎", "https://images.unsplash.com/photo-1606107557195-0e29a4b5b4aa?w=400&h=300&fit=crop&crop=center",
			models.MemeHODL, "Unbreakable conviction", "DIAMOND_HANDS", "HODL", "STRONG"),
		curated("lambo-1", "Lambo Dreams 🏎️", "https://images.unsplash.com/photo-1549317661-bd32c8ce0db2?w=400&h=300&fit=crop&crop=center",
			models.MemePump, "The ultimate crypto goal", "LAMBO", "DREAMS", "RICH"),
		curated("bear-1", "Bear Market Blues 🐻", "https://images.unsplash.com/photo-1611974789855-9c2a0a7236a3?w=400&h=300&fit=crop&crop=center",
			models.MemeDump, "When everything is red", "BEAR", "DOWN", "SAD"),
		curated("bull-1", "Bull Run Energy 🐂", "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=400&h=300&fit=crop&crop=center",
			models.MemePump, "Unstoppable upward momentum", "BULL", "UP", "ENERGY"),
		curated("satoshi-1", "Satoshi's Vision 👁️", "https://images.unsplash.com/photo-1639762681485-074b7f938ba0?w=400&h=300&fit=crop&crop=center",
			models.MemeGeneral, "The original crypto dream", "SATOSHI", "BTC", "VISION"),
		curated("altcoin-1", "Altcoin Season 🌈", "https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=400&h=300&fit=crop&crop=center",
			models.MemePump, "When alts start pumping", "ALTCOIN", "SEASON", "COLORS"),
		curated("degen-1", "Degen Life 🎰", "https://images.unsplash.com/photo-1589820296150-ecf34d9c2e6a?w=400&h=300&fit=crop&crop=center",
			models.MemeGeneral, "Living on the edge", "DEGEN", "GAMBLE", "RISK"),
		curated("stack-1", "Stack Sats 📚", "https://images.unsplash.com/photo-1518709268805-4e9042af2176?w=400&h=300&fit=crop&crop=center",
			models.MemeHODL, "Dollar cost averaging like a pro", "STACK", "SATS", "DCA"),
		curated("moon-1", "Moon Mission 🌙", "https://images.unsplash.com/photo-1446776811953-b23d57bd21aa?w=400&h=300&fit=crop&crop=center",
			models.MemePump, "Next stop: the moon!", "MOON", "MISSION", "SPACE"),
	}
}

// FallbackMeme is served when nothing else can be.
func FallbackMeme() models.Meme {
	return curated("fallback-1", "Crypto Life 🚀", "https://images.unsplash.com/photo-1639762681485-074b7f938ba0?w=400&h=300&fit=crop&crop=center",
		models.MemeGeneral, "The crypto journey continues...", "CRYPTO", "LIFE", "FUN")
}

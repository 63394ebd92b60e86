// internal/infra/supercell/games.go
package supercell

// GameProfile carries the per-game constants needed to talk to the
// Supercell ID service as that game's mobile client.
type GameProfile struct {
	RFPKey      string // hex-encoded request forgery protection key
	SiteKey     string // reCAPTCHA site key of the game's mobile app
	UserAgent   string
	PackageName string
}

// games maps the internal short names to their client profiles.
var games = map[string]GameProfile{
	"magic": {
		RFPKey:      "64b9add2163812f8838e1588c544210f1a7044083f183aba0fba84d415c166b1",
		SiteKey:     "6LdAVCIqAAAAALFFhSHedUzchtFhnsJeucdWU_QN",
		UserAgent:   "scid/1.12.11 (Android 9; magic-prod; SM-S906N) com.supercell.clashofclans/18.0.10",
		PackageName: "com.supercell.clashofclans",
	},
	"scroll": {
		RFPKey:      "ca7088324e650669790965bded7a0e4bc8ef0384bf48791c9538443a9bf1485b",
		SiteKey:     "6LcxMCIqAAAAAIVTklRevyZkoCh3meCiSJDRTwc1",
		UserAgent:   "scid/1.12.11 (Android 9; scroll-prod; SM-S906N) com.supercell.clashroyale/130300033.130300033",
		PackageName: "com.supercell.clashroyale",
	},
	"laser": {
		RFPKey:      "ae584daf58a3757be21fb506dfcfc478fad4600e688d5bb6f3e51ccb2ebfc373",
		SiteKey:     "6LcBWxsqAAAAAJ4zUt4bdfgglSBdrW41BSQn-AIs",
		UserAgent:   "scid/1.12.16 (Android 9; laser-prod; SM-S906N) com.supercell.brawlstars/65.219.65219",
		PackageName: "com.supercell.brawlstars",
	},
}

// GameProfileFor returns the client profile for a short game name.
func GameProfileFor(game string) (GameProfile, bool) {
	p, ok := games[game]
	return p, ok
}

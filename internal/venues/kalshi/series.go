package kalshi

// SeriesTickers lists the Kalshi series swept on every scan. Broad on
// purpose: crypto, indices, sports, economics, weather, politics and
// entertainment all overlap with Polymarket coverage.
var SeriesTickers = []string{
	// Crypto
	"KXBTC", "KXBTCD", "KXETH", "KXETHD", "KXXRP", "KXXRPD",
	"KXDOGE", "KXDOGED", "KXSOLD", "KXSOLE",
	// Stock indices
	"KXINX",
	// Sports - NBA
	"KXNBA", "KXNBASPREAD", "KXNBATOTAL", "KXNBAPTS",
	"KXNBAREB", "KXNBAAST", "KXNBAWINS",
	"KXMVENBASINGLEGAME",
	// Sports - NCAA basketball
	"KXNCAAMBGAME", "KXNCAAMBTOTAL", "KXNCAAMBSPREAD",
	"KXNCAAMB1HSPREAD", "KXNCAAMB1HTOTAL", "KXNCAAMB1HWINNER",
	"KXNCAAWBGAME",
	// Sports - NFL / NCAA football
	"KXNEXTTEAMNFL", "KXNCAAF", "KXNFLDRAFTPICK",
	// Sports - NHL, MLB, golf, other
	"KXNHL", "KXNHLTOTAL", "KXMLB", "KXPGATOUR", "KXPGATOP5",
	"KXPGATOP10", "KXPGATOP20", "KXPGAMAKECUT",
	"KXWCGAME", "KXWCROUND", "KXMARMADROUND", "KXMAKEMARMAD",
	"KXDPWORLDTOUR", "KXDPWORLDTOURR1LEAD",
	// Economics
	"KXFEDDECISION", "KXFED", "KXCPI", "KXGDP", "KXGDPNOM",
	"KXPAYROLLS", "KXECONSTATCPIYOY", "KXECONSTATCORECPIYOY",
	"KXECONSTATU3",
	// Weather
	"KXHIGHNY", "KXHIGHCHI", "KXHIGHMIA",
	// Politics
	"KXHOUSERACE", "KXTXPRIMARY",
	// Entertainment
	"KXALBUMSALES", "KXALBUMRELEASE", "KX10SONG",
}

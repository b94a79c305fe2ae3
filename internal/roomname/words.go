package roomname

var birds = []string{
	"heron", "wren", "finch", "robin", "sparrow", "swallow", "plover", "kestrel", "magpie", "starling",
	"puffin", "toucan", "parrot", "canary", "lark", "thrush", "oriole", "tern", "osprey", "owl",
	"pelican", "flamingo", "penguin", "crane", "egret", "ibis", "jay", "linnet", "martin", "swift",
}

var instruments = []string{
	"cello", "viola", "oboe", "flute", "harp", "lute", "banjo", "sitar", "tabla", "kazoo",
	"piano", "organ", "bugle", "cornet", "tuba", "fiddle", "zither", "ukulele", "marimba", "bongo",
	"clarinet", "piccolo", "trumpet", "timpani", "triangle", "cymbal", "dulcimer", "harmonica", "mandolin", "sax",
}

var places = []string{
	"harbor", "meadow", "canyon", "ridge", "valley", "grove", "island", "lagoon", "summit", "orchard",
	"prairie", "delta", "fjord", "glacier", "marsh", "oasis", "plateau", "reef", "tundra", "bayou",
	"cove", "dune", "forest", "garden", "hollow", "inlet", "jetty", "knoll", "mesa", "pier",
}

var adjectives = []string{
	"tiny", "happy", "sleepy", "fluffy", "sparkly", "cheery", "silly", "jolly", "cozy", "shiny",
	"golden", "silver", "crimson", "emerald", "purple", "amber", "bright", "gentle", "brave", "calm",
	"swift", "quiet", "bouncy", "fuzzy", "plucky", "merry", "peppy", "lucky", "mellow", "nimble",
}

var treats = []string{
	"muffin", "waffle", "pancake", "biscuit", "cupcake", "toffee", "nougat", "praline", "brownie", "scone",
	"dumpling", "noodle", "pretzel", "bagel", "crumpet", "churro", "mochi", "truffle", "sorbet", "gelato",
	"fudge", "macaron", "eclair", "strudel", "tart", "cobbler", "custard", "donut", "fritter", "sundae",
}

var sky = []string{
	"comet", "orbit", "nebula", "aurora", "eclipse", "meteor", "quasar", "pulsar", "zenith", "nova",
	"sunbeam", "stardust", "moonlight", "twilight", "horizon", "rainbow", "breeze", "drizzle", "thunder", "ember",
	"glimmer", "spark", "halo", "cloud", "mist", "frost", "dawn", "dusk", "gale", "ripple",
}

// pools is every word list the generator draws from.
var pools = [][]string{birds, instruments, places, adjectives, treats, sky}

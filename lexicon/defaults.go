package lexicon

// DefaultTables returns a fresh copy of the built-in construction and site
// security vocabulary. Phrases are lowercase.
func DefaultTables() Tables {
	return Tables{
		Synonyms: map[string][]string{
			// ============================================================================
			// BUILDING ENVELOPE & MATERIALS
			// ============================================================================
			"cam":       {"pencere", "kristal", "glass", "vitrin"},
			"pencere":   {"cam", "doğrama", "window"},
			"cephe":     {"dış cephe", "facade", "giydirme"},
			"duvar":     {"perde", "wall", "bölme"},
			"beton":     {"betonarme", "concrete", "çimento"},
			"çelik":     {"demir", "steel", "profil"},
			"izolasyon": {"yalıtım", "insulation", "su yalıtımı"},
			"çatı":      {"roof", "kaplama", "membran"},
			"zemin":     {"döşeme", "floor", "şap"},
			"panel":     {"pano", "levha"},

			// ============================================================================
			// SITE SECURITY
			// ============================================================================
			"güvenlik": {"security", "emniyet", "koruma"},
			"kamera":   {"cctv", "kamera sistemi", "izleme"},
			"kurşun":   {"balistik", "mermi"},
			"kapı":     {"door", "giriş", "turnike"},
			"alarm":    {"ihbar", "uyarı sistemi"},
			"yangın":   {"fire", "sprinkler", "söndürme"},

			// ============================================================================
			// CONTRACT & ADMINISTRATION
			// ============================================================================
			"onay":     {"tasdik", "approval", "uygun görüş"},
			"sözleşme": {"contract", "mukavele"},
			"hakediş":  {"ödeme", "progress payment", "payment"},
			"fatura":   {"invoice", "ödeme"},
			"gecikme":  {"delay", "süre uzatımı", "rötar"},
			"teslim":   {"delivery", "handover", "kabul"},
			"proje":    {"project", "tasarım", "çizim"},
			"revizyon": {"revision", "değişiklik", "tadilat"},
			"ihale":    {"tender", "teklif"},
			"taşeron":  {"alt yüklenici", "subcontractor"},
		},
		StopWords: []string{
			"ve", "ile", "bir", "bu", "şu", "o", "için", "da", "de", "ki", "mi", "ne",
			"olarak", "olan", "gibi", "daha", "çok", "her", "ya", "veya",
			"the", "and", "of", "to", "in", "for", "on", "an", "is", "are", "by", "with", "at", "as",
		},
		DomainTerms: []string{
			"cam", "cephe", "beton", "çelik", "izolasyon", "güvenlik", "kamera", "kurşun",
			"yangın", "onay", "sözleşme", "hakediş", "gecikme", "teslim", "revizyon",
			"şantiye", "metraj", "keşif", "ihale", "taşeron", "panel", "kapı",
		},
		Suffixes: []string{
			"ların", "lerin", "ları", "leri", "lar", "ler",
			"nın", "nin", "nun", "nün", "dan", "den", "tan", "ten",
			"sı", "si", "su", "sü", "yı", "yi", "yu", "yü",
			"ın", "in", "un", "ün", "da", "de", "ta", "te",
			"ı", "i", "u", "ü",
			"ing", "es", "s",
		},
		Inbound:  []string{"inc", "incoming", "in", "inbound", "gelen", "gelen evrak", "g"},
		Outbound: []string{"out", "outgoing", "outbound", "ex", "giden", "giden evrak", "ç"},
		Severity: SeverityTables{
			High:   []string{"high", "yüksek", "critical", "kritik", "urgent", "acil", "5", "4"},
			Medium: []string{"medium", "orta", "normal", "3"},
			Low:    []string{"low", "düşük", "2", "1"},
		},
	}
}

// Default compiles DefaultTables.
func Default() *Lexicon {
	return New(DefaultTables())
}

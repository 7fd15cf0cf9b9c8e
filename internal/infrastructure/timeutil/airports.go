package timeutil

// airportTimezones maps IATA airport codes to IANA timezone names.
var airportTimezones = map[string]string{
	// North America
	"ATL": "America/New_York",
	"BOS": "America/New_York",
	"BWI": "America/New_York",
	"CLT": "America/New_York",
	"DCA": "America/New_York",
	"DTW": "America/Detroit",
	"EWR": "America/New_York",
	"FLL": "America/New_York",
	"IAD": "America/New_York",
	"JFK": "America/New_York",
	"LGA": "America/New_York",
	"MCO": "America/New_York",
	"MIA": "America/New_York",
	"PHL": "America/New_York",
	"TPA": "America/New_York",
	"ORD": "America/Chicago",
	"MDW": "America/Chicago",
	"DFW": "America/Chicago",
	"IAH": "America/Chicago",
	"MSP": "America/Chicago",
	"MSY": "America/Chicago",
	"STL": "America/Chicago",
	"AUS": "America/Chicago",
	"DEN": "America/Denver",
	"SLC": "America/Denver",
	"PHX": "America/Phoenix",
	"LAS": "America/Los_Angeles",
	"LAX": "America/Los_Angeles",
	"SAN": "America/Los_Angeles",
	"SEA": "America/Los_Angeles",
	"SFO": "America/Los_Angeles",
	"SJC": "America/Los_Angeles",
	"PDX": "America/Los_Angeles",
	"ANC": "America/Anchorage",
	"HNL": "Pacific/Honolulu",
	"OGG": "Pacific/Honolulu",
	"YYZ": "America/Toronto",
	"YUL": "America/Toronto",
	"YOW": "America/Toronto",
	"YVR": "America/Vancouver",
	"YYC": "America/Edmonton",
	"YEG": "America/Edmonton",
	"YHZ": "America/Halifax",
	"MEX": "America/Mexico_City",
	"CUN": "America/Cancun",

	// Central and South America
	"PTY": "America/Panama",
	"SJO": "America/Costa_Rica",
	"BOG": "America/Bogota",
	"LIM": "America/Lima",
	"SCL": "America/Santiago",
	"EZE": "America/Argentina/Buenos_Aires",
	"GRU": "America/Sao_Paulo",
	"GIG": "America/Sao_Paulo",

	// Europe
	"LHR": "Europe/London",
	"LGW": "Europe/London",
	"MAN": "Europe/London",
	"EDI": "Europe/London",
	"DUB": "Europe/Dublin",
	"CDG": "Europe/Paris",
	"ORY": "Europe/Paris",
	"NCE": "Europe/Paris",
	"AMS": "Europe/Amsterdam",
	"BRU": "Europe/Brussels",
	"FRA": "Europe/Berlin",
	"MUC": "Europe/Berlin",
	"BER": "Europe/Berlin",
	"DUS": "Europe/Berlin",
	"HAM": "Europe/Berlin",
	"ZRH": "Europe/Zurich",
	"GVA": "Europe/Zurich",
	"VIE": "Europe/Vienna",
	"CPH": "Europe/Copenhagen",
	"ARN": "Europe/Stockholm",
	"OSL": "Europe/Oslo",
	"HEL": "Europe/Helsinki",
	"MAD": "Europe/Madrid",
	"BCN": "Europe/Madrid",
	"LIS": "Europe/Lisbon",
	"FCO": "Europe/Rome",
	"MXP": "Europe/Rome",
	"ATH": "Europe/Athens",
	"IST": "Europe/Istanbul",
	"WAW": "Europe/Warsaw",
	"PRG": "Europe/Prague",
	"BUD": "Europe/Budapest",
	"SVO": "Europe/Moscow",
	"KEF": "Atlantic/Reykjavik",

	// Middle East and Africa
	"DXB": "Asia/Dubai",
	"AUH": "Asia/Dubai",
	"DOH": "Asia/Qatar",
	"BAH": "Asia/Bahrain",
	"TLV": "Asia/Jerusalem",
	"AMM": "Asia/Amman",
	"RUH": "Asia/Riyadh",
	"JED": "Asia/Riyadh",
	"CAI": "Africa/Cairo",
	"ADD": "Africa/Addis_Ababa",
	"NBO": "Africa/Nairobi",
	"JNB": "Africa/Johannesburg",
	"CPT": "Africa/Johannesburg",
	"CMN": "Africa/Casablanca",
	"LOS": "Africa/Lagos",

	// Asia
	"DEL": "Asia/Kolkata",
	"BOM": "Asia/Kolkata",
	"BLR": "Asia/Kolkata",
	"MAA": "Asia/Kolkata",
	"CMB": "Asia/Colombo",
	"KTM": "Asia/Kathmandu",
	"DAC": "Asia/Dhaka",
	"BKK": "Asia/Bangkok",
	"HKT": "Asia/Bangkok",
	"SGN": "Asia/Ho_Chi_Minh",
	"HAN": "Asia/Ho_Chi_Minh",
	"KUL": "Asia/Kuala_Lumpur",
	"SIN": "Asia/Singapore",
	"CGK": "Asia/Jakarta",
	"SUB": "Asia/Jakarta",
	"DPS": "Asia/Makassar",
	"MNL": "Asia/Manila",
	"HKG": "Asia/Hong_Kong",
	"MFM": "Asia/Macau",
	"TPE": "Asia/Taipei",
	"PEK": "Asia/Shanghai",
	"PKX": "Asia/Shanghai",
	"PVG": "Asia/Shanghai",
	"SHA": "Asia/Shanghai",
	"CAN": "Asia/Shanghai",
	"CTU": "Asia/Shanghai",
	"SZX": "Asia/Shanghai",
	"ICN": "Asia/Seoul",
	"GMP": "Asia/Seoul",
	"NRT": "Asia/Tokyo",
	"HND": "Asia/Tokyo",
	"KIX": "Asia/Tokyo",
	"NGO": "Asia/Tokyo",
	"FUK": "Asia/Tokyo",
	"CTS": "Asia/Tokyo",

	// Oceania
	"SYD": "Australia/Sydney",
	"MEL": "Australia/Melbourne",
	"BNE": "Australia/Brisbane",
	"PER": "Australia/Perth",
	"ADL": "Australia/Adelaide",
	"AKL": "Pacific/Auckland",
	"CHC": "Pacific/Auckland",
	"NAN": "Pacific/Fiji",
	"PPT": "Pacific/Tahiti",
}

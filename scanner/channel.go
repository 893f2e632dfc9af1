// wpatui/scanner/channel.go
package scanner

// channels5GHz maps 5 GHz and 4.9 GHz center frequencies (MHz) to channels.
var channels5GHz = map[int]int{
	5035: 7, 5040: 8, 5045: 9, 5055: 11, 5060: 12, 5080: 16,
	5160: 32, 5170: 34, 5180: 36, 5190: 38, 5200: 40, 5210: 42,
	5220: 44, 5230: 46, 5240: 48, 5250: 50, 5260: 52, 5270: 54,
	5280: 56, 5290: 58, 5300: 60, 5310: 62, 5320: 64, 5340: 68,
	5480: 96, 5500: 100, 5510: 102, 5520: 104, 5530: 106, 5540: 108,
	5550: 110, 5560: 112, 5570: 114, 5580: 116, 5590: 118, 5600: 120,
	5610: 122, 5620: 124, 5630: 126, 5640: 128, 5660: 132, 5670: 134,
	5680: 136, 5690: 138, 5700: 140, 5710: 142, 5720: 144, 5745: 149,
	5755: 151, 5765: 153, 5775: 155, 5785: 157, 5795: 159, 5805: 161,
	5825: 165, 5845: 169, 5865: 173,
	4915: 183, 4920: 184, 4925: 185, 4935: 187, 4940: 188, 4945: 189,
	4960: 192, 4980: 196,
}

// FrequencyToChannel returns the channel for a frequency in MHz, or 0 if
// the frequency is not in the 2.4 GHz or 5 GHz tables.
func FrequencyToChannel(freq int) int {
	switch {
	case freq == 2484:
		return 14
	case freq >= 2412 && freq <= 2472 && (freq-2412)%5 == 0:
		return (freq-2412)/5 + 1
	}
	return channels5GHz[freq]
}

package ocean

// Mackenzie returns the speed of sound in sea water (m/s) from temperature
// (deg C), salinity (ppt) and depth (m) with the nine-term equation of
// Mackenzie (1981). Valid for 2-30 C, 25-40 ppt and 0-8000 m.
func Mackenzie(temp, salinity, depth float64) float64 {
	t, s, d := temp, salinity-35, depth
	return 1448.96 +
		4.591*t -
		5.304e-2*t*t +
		2.374e-4*t*t*t +
		1.340*s +
		1.630e-2*d +
		1.675e-7*d*d -
		1.025e-2*t*s -
		7.139e-13*t*d*d*d
}

// Package ocean supplies bathymetry and sound speed to the transmission
// loss calculator.
//
// A Provider is loaded once for the region a run covers and then answers
// vectorised point queries in latitude and longitude. Two providers are
// included: Uniform, a flat ocean with sound speed from the Mackenzie
// equation, and Gridded, a regular elevation grid with a depth profile.
//
// XYToLL and LLToXY convert between local metre offsets and geographic
// coordinates about a reference point.
package ocean

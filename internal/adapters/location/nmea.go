// Package location reads live position fixes from an NMEA 0183 GPS receiver.
package location

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"turn-guidance-service/internal/domain"
)

const (
	knotsToMps = 0.514444
	// Rough conversion from horizontal dilution of precision to meters.
	metersPerHDOP = 5.0
	// Accuracy reported before any GGA sentence has been seen.
	defaultAccuracy = 15.0
)

var (
	ErrChecksum    = errors.New("nmea: checksum mismatch")
	ErrUnsupported = errors.New("nmea: unsupported sentence")
)

// Parser turns NMEA sentences into position samples. GGA sentences only
// update the accuracy estimate; RMC sentences with an active fix produce
// samples.
type Parser struct {
	hdop float64
}

// Parse handles one sentence. ok is false when the sentence carried no
// usable fix.
func (p *Parser) Parse(line string, now time.Time) (sample domain.PositionSample, ok bool, err error) {
	line = strings.TrimSpace(line)
	body, err := verify(line)
	if err != nil {
		return domain.PositionSample{}, false, err
	}

	parts := strings.Split(body, ",")
	if len(parts[0]) < 5 {
		return domain.PositionSample{}, false, ErrUnsupported
	}
	switch parts[0][2:] {
	case "GGA":
		return domain.PositionSample{}, false, p.gga(parts)
	case "RMC":
		return p.rmc(parts, now)
	}
	return domain.PositionSample{}, false, ErrUnsupported
}

// gga: $GPGGA,time,lat,N,lon,E,quality,sats,hdop,...
func (p *Parser) gga(parts []string) error {
	if len(parts) < 9 {
		return fmt.Errorf("nmea: short GGA sentence")
	}
	if parts[6] == "" || parts[6] == "0" {
		return nil
	}
	hdop, err := strconv.ParseFloat(parts[8], 64)
	if err != nil {
		return fmt.Errorf("nmea: parse hdop %q: %w", parts[8], err)
	}
	p.hdop = hdop
	return nil
}

// rmc: $GPRMC,time,status,lat,N,lon,E,knots,course,date,...
func (p *Parser) rmc(parts []string, now time.Time) (domain.PositionSample, bool, error) {
	if len(parts) < 9 {
		return domain.PositionSample{}, false, fmt.Errorf("nmea: short RMC sentence")
	}
	if parts[2] != "A" {
		return domain.PositionSample{}, false, nil
	}

	lat, err := parseCoord(parts[3], parts[4])
	if err != nil {
		return domain.PositionSample{}, false, err
	}
	lng, err := parseCoord(parts[5], parts[6])
	if err != nil {
		return domain.PositionSample{}, false, err
	}

	s := domain.PositionSample{Lat: lat, Lng: lng, Accuracy: defaultAccuracy, Timestamp: now}
	if p.hdop > 0 {
		s.Accuracy = p.hdop * metersPerHDOP
	}
	if knots, err := strconv.ParseFloat(parts[7], 64); err == nil {
		speed := knots * knotsToMps
		s.Speed = &speed
	}
	if course, err := strconv.ParseFloat(parts[8], 64); err == nil {
		s.Heading = &course
	}
	return s, true, nil
}

// verify strips the leading '$' and the '*hh' checksum, checking it when present.
func verify(line string) (string, error) {
	if !strings.HasPrefix(line, "$") {
		return "", ErrUnsupported
	}
	body := line[1:]
	star := strings.LastIndexByte(body, '*')
	if star < 0 {
		return body, nil
	}
	want, err := strconv.ParseUint(body[star+1:], 16, 8)
	if err != nil {
		return "", fmt.Errorf("nmea: parse checksum: %w", err)
	}
	var sum byte
	for i := 0; i < star; i++ {
		sum ^= body[i]
	}
	if sum != byte(want) {
		return "", ErrChecksum
	}
	return body[:star], nil
}

// parseCoord converts ddmm.mmmm / dddmm.mmmm plus hemisphere to degrees.
func parseCoord(v, hemi string) (float64, error) {
	dot := strings.IndexByte(v, '.')
	if dot < 0 {
		dot = len(v)
	}
	if dot < 3 {
		return 0, fmt.Errorf("nmea: invalid coordinate %q", v)
	}
	deg, err := strconv.ParseFloat(v[:dot-2], 64)
	if err != nil {
		return 0, fmt.Errorf("nmea: invalid degrees %q: %w", v, err)
	}
	mins, err := strconv.ParseFloat(v[dot-2:], 64)
	if err != nil {
		return 0, fmt.Errorf("nmea: invalid minutes %q: %w", v, err)
	}
	out := deg + mins/60
	switch hemi {
	case "N", "E":
	case "S", "W":
		out = -out
	default:
		return 0, fmt.Errorf("nmea: invalid hemisphere %q", hemi)
	}
	if math.IsNaN(out) {
		return 0, fmt.Errorf("nmea: invalid coordinate %q", v)
	}
	return out, nil
}

package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestSeatLabel(t *testing.T) {
    assert.Equal(t, "A1", Seat{RowLabel: "A", SeatNumber: 1}.Label())
    assert.Equal(t, "B12", Seat{RowLabel: "B", SeatNumber: 12}.Label())
    assert.Equal(t, "AA3", Seat{RowLabel: "AA", SeatNumber: 3}.Label())
}

func TestSeatIsBooked(t *testing.T) {
    assert.False(t, Seat{Status: SeatStatusFree}.IsBooked())
    assert.True(t, Seat{Status: SeatStatusBooked}.IsBooked())
}

package handler

import (
    "errors"   // errors for sentinel comparisons
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/cinegate/screening-reservation/internal/repository" // repository layer
)

// PublicHandler exposes unauthenticated browse endpoints for the movie
// and screening catalog.  The catalog is written by the external admin
// service; these endpoints only read it so guests can pick a screening
// before logging in to reserve seats.
type PublicHandler struct {
    MovieRepo     *repository.MovieRepo     // access to movies
    ScreeningRepo *repository.ScreeningRepo // access to screenings
}

// NewPublicHandler constructs a PublicHandler.  All dependencies must be
// non-nil.
func NewPublicHandler(movieRepo *repository.MovieRepo, screeningRepo *repository.ScreeningRepo) *PublicHandler {
    if movieRepo == nil || screeningRepo == nil {
        panic("nil repository passed to NewPublicHandler")
    }
    return &PublicHandler{MovieRepo: movieRepo, ScreeningRepo: screeningRepo}
}

// GetMovies handles GET /v1/movies.  It returns all movies ordered by
// title.  When no movies exist an empty array is returned.
func (h *PublicHandler) GetMovies(c echo.Context) error {
    movies, err := h.MovieRepo.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movies"})
    }
    items := make([]echo.Map, 0, len(movies))
    for _, m := range movies {
        item := echo.Map{
            "id":    m.ID,
            "title": m.Title,
        }
        if m.PosterURL != nil {
            item["poster_url"] = *m.PosterURL
        }
        items = append(items, item)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetMovieScreenings handles GET /v1/movies/:id/screenings.  It returns
// all screenings of a movie joined with theater display data, ordered
// by start time.  Responds 404 when the movie does not exist.
func (h *PublicHandler) GetMovieScreenings(c echo.Context) error {
    movieID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
    }
    ctx := c.Request().Context()
    if _, err := h.MovieRepo.GetByID(ctx, movieID); err != nil {
        if errors.Is(err, repository.ErrMovieNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    screenings, err := h.ScreeningRepo.ListByMovie(ctx, movieID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load screenings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": screenings})
}

// GetScreening handles GET /v1/screenings/:id.  It returns a single
// screening with movie and theater details, or 404 when unknown.
func (h *PublicHandler) GetScreening(c echo.Context) error {
    screeningID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
    }
    detail, err := h.ScreeningRepo.GetDetail(c.Request().Context(), screeningID)
    if err != nil {
        if errors.Is(err, repository.ErrScreeningNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

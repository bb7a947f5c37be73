package app

import (
	"net/http"
	"time"

	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/shows"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

func (app *Application) GetMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := app.registry.UpcomingMovies(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.MovieListResponse{Movies: toApiMovies(movies)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetShowtimes(w http.ResponseWriter, r *http.Request, movieId int) {
	showtimes, err := app.registry.Showtimes(r.Context(), movieId)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toShowtimesResponse(showtimes), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetNowPlaying proxies the external catalog so operators can pick movies
// to schedule.
func (app *Application) GetNowPlaying(w http.ResponseWriter, r *http.Request) {
	movies, err := app.registry.NowPlaying(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.MovieListResponse{Movies: toApiMovies(movies)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiMovies(movies []*domain.Movie) []api.Movie {
	result := make([]api.Movie, len(movies))
	for i, movie := range movies {
		result[i] = toApiMovie(movie)
	}

	return result
}

func toApiMovie(movie *domain.Movie) api.Movie {
	if movie == nil {
		return api.Movie{}
	}

	m := api.Movie{
		Id:               movie.ID,
		Title:            movie.Title,
		Overview:         movie.Overview,
		PosterPath:       movie.PosterPath,
		BackdropPath:     movie.BackdropPath,
		Genres:           movie.Genres,
		Cast:             movie.CastMembers,
		OriginalLanguage: movie.OriginalLanguage,
		Tagline:          movie.Tagline,
		VoteAverage:      movie.VoteAverage,
		Runtime:          movie.Runtime,
	}

	if movie.ReleaseDate != nil {
		m.ReleaseDate = &openapi_types.Date{Time: *movie.ReleaseDate}
	}

	return m
}

func toShowtimesResponse(showtimes *shows.MovieShowtimes) api.ShowtimesResponse {
	resp := api.ShowtimesResponse{
		Movie: toApiMovie(showtimes.Movie),
		Dates: make([]api.ShowDate, 0, len(showtimes.Dates)),
	}

	for _, d := range showtimes.Dates {
		day, _ := time.Parse(openapi_types.DateFormat, d.Date)

		date := api.ShowDate{
			Date:      openapi_types.Date{Time: day},
			Showtimes: make([]api.Showtime, len(d.Showtimes)),
		}

		for i, st := range d.Showtimes {
			date.Showtimes[i] = api.Showtime{
				ShowId:   st.ShowID,
				StartsAt: st.StartsAt,
				Price:    st.Price.StringFixed(2),
			}
		}

		resp.Dates = append(resp.Dates, date)
	}

	return resp
}

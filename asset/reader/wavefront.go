package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/kdtrace/asset"
	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/scene"
	"github.com/achilleasa/kdtrace/types"
)

type wavefrontMesh struct {
	name  string
	faces [][3]uint32
}

type wavefrontReader struct {
	logger log.Logger

	meshes []*wavefrontMesh

	// Vertices are shared by all meshes. Only the number of texture and
	// normal coordinates is tracked so face indices can be validated.
	vertexList  []types.Vec3f
	uvCount     int
	normalCount int

	errStack []string
}

func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger:   log.New("wavefront reader"),
		errStack: make([]string, 0),
	}
}

func (r *wavefrontReader) Read(res *asset.Resource) ([]*scene.Mesh, error) {
	r.logger.Noticef(`parsing meshes from "%s"`, res.Path())
	start := time.Now()

	err := r.parse(res)
	if err != nil {
		return nil, err
	}

	meshes := make([]*scene.Mesh, 0, len(r.meshes))
	triCount := 0
	for _, wfMesh := range r.meshes {
		mesh, err := scene.NewMesh(wfMesh.name, r.vertexList, wfMesh.faces)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
		triCount += len(mesh.Triangles)
	}

	r.logger.Noticef("parsed %d meshes (%d triangles) in %d ms", len(meshes), triCount, time.Since(start).Nanoseconds()/1e6)
	return meshes, nil
}

func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	errMsg := strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	)
	return errors.New(errMsg)
}

func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int

	// Positive face indices are relative to the coordinates defined by
	// the current file.
	relVertexOffset := len(r.vertexList)
	relUvOffset := r.uvCount
	relNormalOffset := r.normalCount

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, types.PackVec3(v))
		case "vn":
			if _, err := parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.normalCount++
		case "vt":
			if len(lineTokens) < 3 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "vt"; expected 2 arguments; got %d`, len(lineTokens)-1)
			}
			r.uvCount++
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.verifyLastParsedMesh()
			r.meshes = append(r.meshes, &wavefrontMesh{name: lineTokens[1]})
		case "f":
			faces, err := r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			if len(r.meshes) == 0 {
				r.meshes = append(r.meshes, &wavefrontMesh{name: "default"})
			}

			mesh := r.meshes[len(r.meshes)-1]
			mesh.faces = append(mesh.faces, faces...)
		default:
			r.logger.Debugf(`[%s: %d] ignoring unsupported statement "%s"`, res.Path(), lineNum, lineTokens[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}

	r.verifyLastParsedMesh()
	return nil
}

func (r *wavefrontReader) verifyLastParsedMesh() {
	lastMeshIndex := len(r.meshes) - 1
	if lastMeshIndex >= 0 && len(r.meshes[lastMeshIndex].faces) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.meshes[lastMeshIndex].name)
		r.meshes = r.meshes[:lastMeshIndex]
	}
}

// Parse a triangle or quad face. Quads are split into two triangles.
func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) ([][3]uint32, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var indices [4]uint32
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		indices[arg] = uint32(vOffset)

		if expIndices > 1 && vTokens[1] != "" {
			if _, err = selectFaceCoordIndex(vTokens[1], r.uvCount, relUvOffset); err != nil {
				return nil, fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}

		if expIndices > 2 && vTokens[2] != "" {
			if _, err = selectFaceCoordIndex(vTokens[2], r.normalCount, relNormalOffset); err != nil {
				return nil, fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
		}
	}

	faces := [][3]uint32{{indices[0], indices[1], indices[2]}}
	if len(lineTokens) == 5 {
		faces = append(faces, [3]uint32{indices[0], indices[2], indices[3]})
	}
	return faces, nil
}

// Convert a 1-based face coordinate index into an offset in the coordinate
// list. Negative indices are relative to the end of the list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	switch {
	case index == 0:
		return -1, fmt.Errorf("invalid index 0")
	case index < 0:
		vOffset = coordListLen + int(index)
	default:
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = coord
	}
	return v, nil
}

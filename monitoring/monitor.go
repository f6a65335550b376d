// Package monitoring turns a running simulation into a small web server
// so that long experiments can be inspected from a browser while they
// run.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/nandsim/ftl"
)

// Monitor exposes the state of registered controllers over HTTP and
// allows external observation of the simulation.
type Monitor struct {
	controllers []*ftl.Comp
	portNumber  int
	openBrowser bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowserLaunch makes StartServer open the server URL in the default
// browser.
func (m *Monitor) WithBrowserLaunch() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterController registers a controller to be monitored.
func (m *Monitor) RegisterController(c *ftl.Comp) {
	m.controllers = append(m.controllers, c)
}

// StartServer starts the monitor as a web server, on the configured port
// or on a random free port.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_controllers", m.listControllers)
	r.HandleFunc("/api/controller/{name}", m.controllerMetrics)
	r.HandleFunc("/api/controller/{name}/blocks", m.controllerBlocks)
	r.HandleFunc("/api/state/{name}", m.controllerState)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	if m.openBrowser {
		// Best effort, headless environments have no browser.
		_ = browser.OpenURL(url + "/api/list_controllers")
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) listControllers(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, c := range m.controllers {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", c.Name())
	}
	fmt.Fprint(w, "]")
}

type metricsRsp struct {
	Name             string  `json:"name"`
	Strategy         string  `json:"strategy"`
	HostWrites       uint64  `json:"host_writes"`
	PhysicalWrites   uint64  `json:"physical_writes"`
	WAF              float64 `json:"waf"`
	WearVariance     float64 `json:"wear_variance"`
	LifetimeEstimate float64 `json:"lifetime_estimate"`
	GCInvocations    uint64  `json:"gc_invocations"`
	NumMapped        int     `json:"num_mapped"`

	AlphaWeight float64 `json:"alpha_weight,omitempty"`
	BetaWeight  float64 `json:"beta_weight,omitempty"`
	GammaWeight float64 `json:"gamma_weight,omitempty"`
}

func (m *Monitor) controllerMetrics(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	controller := m.findControllerOr404(w, name)
	if controller == nil {
		return
	}

	lifetime := controller.LifetimeEstimate()
	if math.IsInf(lifetime, 1) {
		lifetime = 0
	}

	rsp := metricsRsp{
		Name:             controller.Name(),
		Strategy:         controller.StrategyName(),
		HostWrites:       controller.HostWrites(),
		PhysicalWrites:   controller.PhysicalWrites(),
		WAF:              controller.WAF(),
		WearVariance:     controller.WearVariance(),
		LifetimeEstimate: lifetime,
		GCInvocations:    controller.GCInvocations(),
		NumMapped:        controller.NumMapped(),
	}

	if weights, ok := controller.Weights(); ok {
		rsp.AlphaWeight = weights.Alpha
		rsp.BetaWeight = weights.Beta
		rsp.GammaWeight = weights.Gamma
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type blockRsp struct {
	Block        int    `json:"block"`
	EraseCount   uint64 `json:"erase_count"`
	FreePages    int    `json:"free_pages"`
	ValidPages   int    `json:"valid_pages"`
	InvalidPages int    `json:"invalid_pages"`
}

func (m *Monitor) controllerBlocks(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	controller := m.findControllerOr404(w, name)
	if controller == nil {
		return
	}

	sortMethod, limit, offset, err := m.blocksParseParams(r)
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	blocks := m.sortAndSelectBlocks(controller, sortMethod, limit, offset)

	bytes, err := json.Marshal(blocks)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (*Monitor) blocksParseParams(
	r *http.Request,
) (sort string, limit, offset int, err error) {
	sortMethod := r.URL.Query().Get("sort")
	if sortMethod == "" {
		sortMethod = "wear"
	}
	if sortMethod != "wear" && sortMethod != "invalid" {
		errStr := fmt.Sprintf(
			"Invalid sort method: %s. Allowed values are `wear` and `invalid`",
			sortMethod)
		return "", 0, 0, errors.New(errStr)
	}

	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		limitStr = "0"
	}
	limitNumber, err := strconv.Atoi(limitStr)
	if err != nil {
		return sortMethod, 0, 0, err
	}

	offsetStr := r.URL.Query().Get("offset")
	if offsetStr == "" {
		offsetStr = "0"
	}
	offsetNumber, err := strconv.Atoi(offsetStr)
	if err != nil {
		return sortMethod, limitNumber, 0, err
	}

	return sortMethod, limitNumber, offsetNumber, nil
}

func (m *Monitor) sortAndSelectBlocks(
	controller *ftl.Comp,
	sortMethod string,
	limit, offset int,
) []blockRsp {
	device := controller.Device()

	blocks := make([]blockRsp, device.NumBlocks())
	for i := range blocks {
		b := device.Block(i)
		blocks[i] = blockRsp{
			Block:        b.ID(),
			EraseCount:   b.EraseCount(),
			FreePages:    b.FreePages(),
			ValidPages:   b.ValidPages(),
			InvalidPages: b.InvalidPages(),
		}
	}

	switch sortMethod {
	case "wear":
		sort.Slice(blocks, func(i, j int) bool {
			if blocks[i].EraseCount != blocks[j].EraseCount {
				return blocks[i].EraseCount > blocks[j].EraseCount
			}
			return blocks[i].Block < blocks[j].Block
		})
	case "invalid":
		sort.Slice(blocks, func(i, j int) bool {
			if blocks[i].InvalidPages != blocks[j].InvalidPages {
				return blocks[i].InvalidPages > blocks[j].InvalidPages
			}
			return blocks[i].Block < blocks[j].Block
		})
	default:
		panic("Invalid sort method " + sortMethod)
	}

	if offset > len(blocks) {
		offset = len(blocks)
	}
	blocks = blocks[offset:]

	if limit > 0 && limit < len(blocks) {
		blocks = blocks[:limit]
	}

	return blocks
}

func (m *Monitor) controllerState(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	controller := m.findControllerOr404(w, name)
	if controller == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(controller)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	ControllerName string   `json:"controller_name,omitempty"`
	FieldPath      []string `json:"field_path,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		dieOnErr(err)
	}

	controller := m.findControllerOr404(w, req.ControllerName)
	if controller == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(controller)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(req.FieldPath)
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findControllerOr404(
	w http.ResponseWriter,
	name string,
) *ftl.Comp {
	var controller *ftl.Comp
	for _, c := range m.controllers {
		if c.Name() == name {
			controller = c
		}
	}

	if controller == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Controller not found"))
		dieOnErr(err)
	}

	return controller
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bytes, err := json.Marshal(m.progressBars)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}

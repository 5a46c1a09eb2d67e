package sandbox

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// DefaultNamespace is the namespace Jobs are created in when
// SANDBOX_NAMESPACE is unset.
const DefaultNamespace = "default"

// jobPollInterval is how often KubernetesLauncher polls Job status while
// waiting for it to finish, since client-go has no blocking Job-completion
// watch as simple as Docker's ContainerWait.
const jobPollInterval = 2 * time.Second

// KubernetesLauncher runs a Runner's subprocess as a Kubernetes Job with a
// single Pod, used when RUNNER_SANDBOX=kubernetes. Each launch gets its own
// Job, deleted once the caller has finished waiting on it.
type KubernetesLauncher struct {
	clientset kubernetes.Interface
	namespace string
	image     string
}

// NewKubernetesLauncher creates a KubernetesLauncher, trying in-cluster
// config first and falling back to kubeconfig (matching how the rest of
// this stack's Kubernetes-aware code resolves credentials).
func NewKubernetesLauncher() (*KubernetesLauncher, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		kubeconfigPath := os.Getenv("KUBECONFIG")
		if kubeconfigPath == "" {
			home, _ := os.UserHomeDir()
			kubeconfigPath = filepath.Join(home, ".kube", "config")
		}
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
		if err != nil {
			return nil, fmt.Errorf("creating k8s config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("creating k8s clientset: %w", err)
	}

	namespace := os.Getenv("SANDBOX_NAMESPACE")
	if namespace == "" {
		namespace = DefaultNamespace
	}
	image := os.Getenv("SANDBOX_IMAGE")
	if image == "" {
		image = DefaultImage
	}

	return &KubernetesLauncher{clientset: clientset, namespace: namespace, image: image}, nil
}

func (k *KubernetesLauncher) Launch(ctx context.Context, spec ProcessSpec) (Process, error) {
	jobName := fmt.Sprintf("wingman-run-%d", time.Now().UnixNano())
	backoffLimit := int32(0)

	envVars := make([]corev1.EnvVar, 0, len(spec.Env))
	for _, kv := range spec.Env {
		name, value, ok := cutEnv(kv)
		if !ok {
			continue
		}
		envVars = append(envVars, corev1.EnvVar{Name: name, Value: value})
	}

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{Name: jobName, Namespace: k.namespace},
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoffLimit,
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:       "runner",
							Image:      k.image,
							Command:    append([]string{spec.Command}, spec.Args...),
							Env:        envVars,
							WorkingDir: spec.WorkingDir,
						},
					},
				},
			},
		},
	}

	if _, err := k.clientset.BatchV1().Jobs(k.namespace).Create(ctx, job, metav1.CreateOptions{}); err != nil {
		return nil, fmt.Errorf("creating sandbox job: %w", err)
	}

	proc := &kubernetesProcess{
		clientset: k.clientset,
		namespace: k.namespace,
		jobName:   jobName,
	}
	stdoutR, stdoutW := io.Pipe()
	proc.stdout = stdoutR
	go proc.streamAndWait(ctx, stdoutW)

	return proc, nil
}

func cutEnv(kv string) (name, value string, ok bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}

type kubernetesProcess struct {
	clientset kubernetes.Interface
	namespace string
	jobName   string
	stdout    io.Reader

	mu       sync.Mutex
	waited   bool
	exitCode int
	waitDone chan struct{}
}

func (p *kubernetesProcess) Stdout() io.Reader { return p.stdout }

// streamAndWait waits for the Job's Pod to appear, streams its logs into w,
// then polls the Job until it completes and records the exit code.
func (p *kubernetesProcess) streamAndWait(ctx context.Context, w *io.PipeWriter) {
	p.mu.Lock()
	p.waitDone = make(chan struct{})
	p.mu.Unlock()
	defer close(p.waitDone)
	defer w.Close()

	podName := p.waitForPod(ctx)
	if podName != "" {
		p.streamPodLogs(ctx, podName, w)
	}

	exitCode := p.pollJobCompletion(ctx)

	p.mu.Lock()
	p.exitCode = exitCode
	p.mu.Unlock()
}

func (p *kubernetesProcess) waitForPod(ctx context.Context) string {
	var podName string
	_ = wait.PollUntilContextTimeout(ctx, 500*time.Millisecond, 30*time.Second, true, func(ctx context.Context) (bool, error) {
		pods, err := p.clientset.CoreV1().Pods(p.namespace).List(ctx, metav1.ListOptions{
			LabelSelector: "job-name=" + p.jobName,
		})
		if err != nil || len(pods.Items) == 0 {
			return false, nil
		}
		podName = pods.Items[0].Name
		return true, nil
	})
	return podName
}

func (p *kubernetesProcess) streamPodLogs(ctx context.Context, podName string, w io.Writer) {
	req := p.clientset.CoreV1().Pods(p.namespace).GetLogs(podName, &corev1.PodLogOptions{Follow: true})
	stream, err := req.Stream(ctx)
	if err != nil {
		slog.Warn("sandbox: failed to stream pod logs", "pod", podName, "error", err)
		return
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}
}

func (p *kubernetesProcess) pollJobCompletion(ctx context.Context) int {
	for {
		job, err := p.clientset.BatchV1().Jobs(p.namespace).Get(ctx, p.jobName, metav1.GetOptions{})
		if err != nil {
			return 1
		}
		if job.Status.Succeeded > 0 {
			return 0
		}
		if job.Status.Failed > 0 {
			return 1
		}
		select {
		case <-ctx.Done():
			return -1
		case <-time.After(jobPollInterval):
		}
	}
}

func (p *kubernetesProcess) Wait() error {
	p.mu.Lock()
	done := p.waitDone
	already := p.waited
	p.mu.Unlock()

	if already {
		return nil
	}
	if done != nil {
		<-done
	}

	p.mu.Lock()
	p.waited = true
	p.mu.Unlock()

	_ = p.clientset.BatchV1().Jobs(p.namespace).Delete(context.Background(), p.jobName, metav1.DeleteOptions{
		PropagationPolicy: propagationBackground(),
	})
	return nil
}

func (p *kubernetesProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Signal is a no-op: Kubernetes Jobs have no portable signal-delivery API.
// The Runner's interrupt and SIGTERM steps therefore have no effect on this
// backend; the run ends when the escalation reaches Kill, which deletes the
// Job.
func (p *kubernetesProcess) Signal(sig syscall.Signal) error {
	return nil
}

func (p *kubernetesProcess) Kill() error {
	return p.clientset.BatchV1().Jobs(p.namespace).Delete(context.Background(), p.jobName, metav1.DeleteOptions{
		PropagationPolicy: propagationBackground(),
	})
}

func propagationBackground() *metav1.DeletionPropagation {
	policy := metav1.DeletePropagationBackground
	return &policy
}

